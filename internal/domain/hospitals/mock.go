package hospitals

import (
	"context"
	"time"
)

// MockDataSource serves a fixed leaderboard for demo and test environments.
// Rows are stamped with the requesting organization so the response shape
// matches live data.
type MockDataSource struct{}

func NewMockDataSource() *MockDataSource {
	return &MockDataSource{}
}

var mockLeaderboard = []Hospital{
	{ID: "mock-hospital-1", Name: "St. Helena General", City: "Portland", EnrollmentCount: 148},
	{ID: "mock-hospital-2", Name: "Riverside Medical Center", City: "Sacramento", EnrollmentCount: 121},
	{ID: "mock-hospital-3", Name: "Lakeview Clinic", City: "Chicago", EnrollmentCount: 97},
	{ID: "mock-hospital-4", Name: "Mercy Teaching Hospital", City: "Austin", EnrollmentCount: 64},
}

func (m *MockDataSource) Leaderboard(_ context.Context, orgID string) ([]Hospital, error) {
	now := time.Now().UTC()
	out := make([]Hospital, len(mockLeaderboard))
	for i, h := range mockLeaderboard {
		h.OrganizationID = orgID
		h.CreatedAt = now
		h.UpdatedAt = now
		out[i] = h
	}
	return out, nil
}
