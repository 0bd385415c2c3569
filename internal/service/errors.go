package service

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrJobNotFound struct {
	error
}

func NewErrJobNotFound(id uuid.UUID) *ErrJobNotFound {
	return &ErrJobNotFound{fmt.Errorf("report job %s not found", id)}
}

type ErrJobNotReady struct {
	error
}

func NewErrJobNotReady(id uuid.UUID, status string) *ErrJobNotReady {
	return &ErrJobNotReady{fmt.Errorf("report job %s is not completed (status %s)", id, status)}
}

type ErrJobAccessForbidden struct {
	error
}

func NewErrJobAccessForbidden(id uuid.UUID) *ErrJobAccessForbidden {
	return &ErrJobAccessForbidden{fmt.Errorf("report job %s does not belong to the caller", id)}
}

type ErrQueueFull struct {
	error
}

func NewErrQueueFull() *ErrQueueFull {
	return &ErrQueueFull{fmt.Errorf("too many report jobs in flight, try again later")}
}

type ErrInvalidWebhookURL struct {
	error
}

func NewErrInvalidWebhookURL(url string) *ErrInvalidWebhookURL {
	return &ErrInvalidWebhookURL{fmt.Errorf("invalid webhook url: %s", url)}
}
