package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsToEnglish(t *testing.T) {
	tr, err := New("")
	require.NoError(t, err)
	assert.Equal(t, "en", tr.Lang())
	assert.Equal(t, "General Architecture Rules", tr.Message("section_rules", nil))
}

func TestNew_Spanish(t *testing.T) {
	tr, err := New("es")
	require.NoError(t, err)
	assert.Equal(t, "Reglas Generales de Arquitectura", tr.Message("section_rules", nil))
	assert.Contains(t, tr.Message("prompt_closing", nil), "Score=0.xx")
}

func TestNew_Unsupported(t *testing.T) {
	_, err := New("fr")
	assert.Error(t, err)
}

func TestMessage_MissingReturnsID(t *testing.T) {
	tr, err := New("en")
	require.NoError(t, err)
	assert.Equal(t, "no_such_message", tr.Message("no_such_message", nil))
}

func TestSupported(t *testing.T) {
	assert.ElementsMatch(t, []string{"en", "es"}, Supported())
}

func TestBundlesHaveSameKeys(t *testing.T) {
	en, err := New("en")
	require.NoError(t, err)
	es, err := New("es")
	require.NoError(t, err)

	for _, id := range []string{
		"prompt_role", "prompt_guidelines", "section_rules", "section_requirements",
		"section_diagram", "section_structure", "label_classes", "label_interfaces",
		"label_associations", "section_relations", "section_summary", "section_none",
		"prompt_closing",
	} {
		assert.NotEqual(t, id, en.Message(id, nil), id)
		assert.NotEqual(t, id, es.Message(id, nil), id)
	}
}
