package repomodel

import (
	"encoding/json"
	"fmt"

	"github.com/JoaoClaudiano/gittree/pkg/models"
)

func encodeModel(m *models.RepositoryModel) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding model: %v", ErrSerialization, err)
	}
	return data, nil
}

func decodeModel(data []byte) (*models.RepositoryModel, error) {
	var m models.RepositoryModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if m.Tree == nil || !m.Tree.IsDir() {
		return nil, fmt.Errorf("%w: model has no root directory", ErrSerialization)
	}
	if m.Metrics.LanguageDistribution == nil {
		m.Metrics.LanguageDistribution = map[string]int{}
	}
	if m.Graph.Nodes == nil {
		m.Graph.Nodes = []models.GraphNode{}
	}
	if m.Graph.Edges == nil {
		m.Graph.Edges = []models.GraphEdge{}
	}
	return &m, nil
}
