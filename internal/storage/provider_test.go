package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/storage"
)

func TestNoOpProvider(t *testing.T) {
	t.Parallel()
	var p storage.Provider = storage.NoOpProvider{}
	assert.NoError(t, p.Save(context.Background(), "pages/2023/1.html", []byte("x")))
}
