package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestIgnoreDuplicateKey(t *testing.T) {
	assert.NoError(t, ignoreDuplicateKey(nil))

	// A second trigger record for the same alert is not an error
	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
	assert.NoError(t, ignoreDuplicateKey(dup))

	// Anything else still surfaces
	other := errors.New("connection reset")
	assert.Equal(t, other, ignoreDuplicateKey(other))

	writeFail := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 121}}}
	assert.Error(t, ignoreDuplicateKey(writeFail))
}
