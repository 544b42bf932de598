package models

// QueryRequest is the body of a query, both towards the external /query/
// endpoint and on POST /api/v1/sessions/:id/query.
type QueryRequest struct {
	Question string `json:"question"`
}
