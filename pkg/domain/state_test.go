package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTarget_Resolve(t *testing.T) {
	single := To(StateEnroll)
	s, ok := single.Resolve("anything")
	assert.True(t, ok)
	assert.Equal(t, StateEnroll, s)

	list := OneOf(StateEnroll, StateCourses)
	s, ok = list.Resolve(" Courses ")
	assert.True(t, ok)
	assert.Equal(t, StateCourses, s)

	_, ok = list.Resolve("payments")
	assert.False(t, ok)
}

func TestTarget_JSON(t *testing.T) {
	data, err := json.Marshal(To(StateMenu))
	require.NoError(t, err)
	assert.JSONEq(t, `"menu"`, string(data))

	data, err = json.Marshal(OneOf(StateHelp, StateAbout))
	require.NoError(t, err)
	assert.JSONEq(t, `["help","about"]`, string(data))

	var back Target
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.IsList())
	assert.True(t, back.Contains(StateAbout))

	require.NoError(t, json.Unmarshal([]byte(`"greet"`), &back))
	assert.False(t, back.IsList())
	assert.Equal(t, StateGreet, back.Name)
}

func TestTarget_YAML(t *testing.T) {
	var doc struct {
		A Target `yaml:"a"`
		B Target `yaml:"b"`
	}
	err := yaml.Unmarshal([]byte("a: menu\nb: [enroll, courses]\n"), &doc)
	require.NoError(t, err)
	assert.Equal(t, To(StateMenu), doc.A)
	assert.Equal(t, OneOf(StateEnroll, StateCourses), doc.B)
}

func TestSession_CloneIsDeep(t *testing.T) {
	s := NewSession(StateEnroll)
	s.Data["nested"] = map[string]any{"page": 1}

	c := s.Clone()
	c.Data["nested"].(map[string]any)["page"] = 2

	assert.Equal(t, 1, s.Data["nested"].(map[string]any)["page"])
}
