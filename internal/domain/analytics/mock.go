package analytics

import "context"

// MockDataSource returns stable demo numbers for environments without a
// populated database.
type MockDataSource struct{}

func NewMockDataSource() *MockDataSource {
	return &MockDataSource{}
}

func (m *MockDataSource) Summary(_ context.Context, _ string, trialIDs []string) (Summary, error) {
	summary := Summary{
		Trials:       3,
		Users:        12,
		Enrollments:  27,
		Documents:    9,
		PatientTotal: 430,
		PerTrial: []TrialStat{
			{TrialID: "mock-trial-1", TrialName: "CBX-204 Phase II", PatientCount: 210},
			{TrialID: "mock-trial-2", TrialName: "CBX-115 Extension", PatientCount: 145},
			{TrialID: "mock-trial-3", TrialName: "NOVA-7 Observational", PatientCount: 75},
		},
	}
	if trialIDs != nil && len(trialIDs) == 0 {
		return Summary{PerTrial: []TrialStat{}}, nil
	}
	return summary, nil
}
