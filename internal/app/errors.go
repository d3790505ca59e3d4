package app

// DomainError carries an HTTP-mappable failure out of the service layer.
// Saves never produce one - their failures are classified on the SaveOutcome -
// but every other operation surfaces caller errors this way and mapError
// turns them into the response status and body.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return e.Code + ": " + e.Message
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{Status: status, Code: code, Message: message, Details: details}
}
