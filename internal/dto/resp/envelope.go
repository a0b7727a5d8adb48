package resp

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Envelope wraps every JSON body the API returns.
type Envelope struct {
	Success bool         `json:"success"`
	Code    string       `json:"code,omitempty"`
	Message string       `json:"message"`
	Data    any          `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func OK(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}
