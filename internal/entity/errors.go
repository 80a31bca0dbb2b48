package entity

import "errors"

var (
	ErrLinkNotFound  = errors.New("entity: link not found")
	ErrJointNotFound = errors.New("entity: joint not found")
)
