package domain

import "errors"

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrInvalidProduct   = errors.New("invalid product")
	ErrSubmissionFailed = errors.New("message submission failed")
	ErrBrokerClosed     = errors.New("broker is closed")
	ErrConsumerStarted  = errors.New("consumer already started")
)
