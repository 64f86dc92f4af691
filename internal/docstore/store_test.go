package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mydrift-ai/mydrift/internal/model"
)

func TestCollectionConfig(t *testing.T) {
	cfg := CollectionConfig{BaseName: "chat_collection", Version: "2025-04-03"}
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "chat_collection_2025_04_03", cfg.TableName())

	assert.ErrorIs(t, CollectionConfig{Version: "v1"}.Validate(), model.ErrSetup)
	assert.ErrorIs(t, CollectionConfig{BaseName: "x"}.Validate(), model.ErrSetup)
}
