package queues

import "context"

type ReportRequest struct {
	RequestID string `json:"requestId"`
	Order     string `json:"order,omitempty"`
	Driver    string `json:"driver,omitempty"`
	Format    string `json:"format,omitempty"`
}

type ReportStatus string

const (
	StatusSuccess ReportStatus = "Success"
	StatusFailure ReportStatus = "Failure"
)

const (
	EnvelopeVersion = "1.0"
	ResultType      = "report-result"
)

type ReportResult struct {
	EnvelopeVersion string       `json:"envelopeVersion"`
	Type            string       `json:"type"`
	RequestID       string       `json:"requestId"`
	Status          ReportStatus `json:"status"`
	Format          string       `json:"format,omitempty"`
	Payload         *string      `json:"payload,omitempty"`
	ErrorMessage    *string      `json:"errorMessage,omitempty"`
}

type Subscriber interface {
	Start(ctx context.Context, handler func(context.Context, *ReportRequest) error) error
}

type Publisher interface {
	PublishResult(ctx context.Context, res *ReportResult) error
}
