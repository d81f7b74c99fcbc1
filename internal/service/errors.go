package service

import "errors"

var (
	ErrUnknownSector   = errors.New("error unknown sector")
	ErrDatasetNotReady = errors.New("error dataset is not ready")
	ErrSharingDisabled = errors.New("error report sharing is disabled")
)
