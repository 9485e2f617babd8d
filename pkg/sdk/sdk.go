package sdk

// Payload is the response envelope used by every JSON endpoint. The HTTP
// status travels alongside the body so controllers can hand both to gin in
// one call.
type Payload struct {
	StatusCode int    `json:"-"`
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	Count      *int   `json:"count,omitempty"`
	Data       any    `json:"data,omitempty"`
}

// NewSuccessResponse builds a success envelope with the given status code
func NewSuccessResponse(statusCode int, message string, data any) *Payload {
	return &Payload{
		StatusCode: statusCode,
		Success:    true,
		Message:    message,
		Data:       data,
	}
}

// NewErrorResponse builds a failure envelope. Only the provided message is
// exposed to the caller; underlying error detail stays in server logs.
func NewErrorResponse(statusCode int, message string) *Payload {
	return &Payload{
		StatusCode: statusCode,
		Success:    false,
		Message:    message,
	}
}

// WithCount attaches a total count to list responses
func (p *Payload) WithCount(count int) *Payload {
	p.Count = &count
	return p
}

// AsGinResponse returns the payload in the (code, body) form gin's
// Context.JSON expects
func (p *Payload) AsGinResponse() (int, any) {
	return p.StatusCode, p
}
