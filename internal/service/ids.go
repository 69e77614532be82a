package service

import "github.com/google/uuid"

func newAssetID() string {
	return uuid.NewString()
}
