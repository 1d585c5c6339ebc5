package storage

import (
	"errors"
	"testing"

	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
)

func TestMapS3Error(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		notFound bool
	}{
		{"no such key", &s3types.NoSuchKey{}, true},
		{"head not found", &smithy.GenericAPIError{Code: "NotFound"}, true},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"plain error", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := mapS3Error(tt.err)
			assert.Equal(t, tt.notFound, IsNotFound(mapped))
			assert.ErrorIs(t, mapped, tt.err)
		})
	}
}

func TestMapMinioError(t *testing.T) {
	assert.True(t, IsNotFound(mapMinioError(minio.ErrorResponse{Code: "NoSuchKey"})))
	assert.False(t, IsNotFound(mapMinioError(minio.ErrorResponse{Code: "AccessDenied"})))
	assert.False(t, IsNotFound(mapMinioError(errors.New("dial tcp: refused"))))
}
