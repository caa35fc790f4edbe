package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectEnglish(t *testing.T) {
	d := NewDetector()
	assert.Equal(t, "English", d.Detect("Show me all pending orders from the last week"))
}

func TestDetectSpanish(t *testing.T) {
	d := NewDetector()
	assert.Equal(t, "Spanish", d.Detect("muéstrame todos los pedidos pendientes de la última semana"))
}

func TestDetectItalian(t *testing.T) {
	d := NewDetector()
	assert.Equal(t, "Italian", d.Detect("mostrami tutti gli ordini urgenti di questa settimana"))
}

func TestDetectEmptyFallsBack(t *testing.T) {
	d := NewDetector()
	assert.Equal(t, DefaultLanguage, d.Detect(""))
	assert.Equal(t, DefaultLanguage, d.Detect("   "))
}
