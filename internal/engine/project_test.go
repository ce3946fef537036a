package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTarget records projection calls for assertion.
type fakeTarget struct {
	key, kind    string
	primary      *JobResult
	primaryCalls int
	supporting   []JobResult
}

func (f *fakeTarget) TargetKey() string  { return f.key }
func (f *fakeTarget) TargetKind() string { return f.kind }

func (f *fakeTarget) SetPrimary(r JobResult) {
	f.primary = &r
	f.primaryCalls++
}

func (f *fakeTarget) AddSupporting(r JobResult) {
	f.supporting = append(f.supporting, r)
}

func TestProject_HeroTargetPrefersHeroResult(t *testing.T) {
	hero := &fakeTarget{key: "s1", kind: "hero"}
	about := &fakeTarget{key: "s2", kind: "about"}

	results := []JobResult{
		{Key: "s1", Class: PriorityClass("icon"), Value: "icon.png"},
		{Key: "s1", Class: ClassHero, Value: "hero.png"},
		{Key: "s2", Class: ClassSupporting, Value: "team.png"},
	}
	Project([]ProjectionTarget{hero, about}, results)

	require.NotNil(t, hero.primary)
	assert.Equal(t, ClassHero, hero.primary.Class)
	assert.Equal(t, "hero.png", hero.primary.Value)
	require.Len(t, hero.supporting, 1)
	assert.Equal(t, "icon.png", hero.supporting[0].Value)

	require.NotNil(t, about.primary)
	assert.Equal(t, "team.png", about.primary.Value)
	assert.Empty(t, about.supporting)
}

func TestProject_FirstMatchIsPrimaryForNonHeroTarget(t *testing.T) {
	target := &fakeTarget{key: "s", kind: "gallery"}
	Project([]ProjectionTarget{target}, []JobResult{
		{Key: "s", Class: ClassSupporting, Value: "one"},
		{Key: "s", Class: ClassHero, Value: "two"},
	})

	require.NotNil(t, target.primary)
	assert.Equal(t, "one", target.primary.Value, "non-hero targets take the first match")
	require.Len(t, target.supporting, 1)
	assert.Equal(t, "two", target.supporting[0].Value)
}

func TestProject_FailedResultsAreDropped(t *testing.T) {
	target := &fakeTarget{key: "s1", kind: "about"}
	Project([]ProjectionTarget{target}, []JobResult{
		{Key: "s1", Err: errors.New("boom")},
	})

	assert.Nil(t, target.primary, "failed results never reach a target")
	assert.Empty(t, target.supporting)
}

func TestProject_NoMatchesLeavesTargetAlone(t *testing.T) {
	target := &fakeTarget{key: "s1", kind: "hero"}
	Project([]ProjectionTarget{target}, []JobResult{{Key: "other", Value: 1}})
	assert.Nil(t, target.primary)
	assert.Zero(t, target.primaryCalls)
}

func TestProject_ExactlyOnePrimary(t *testing.T) {
	target := &fakeTarget{key: "s", kind: "hero"}
	Project([]ProjectionTarget{target}, []JobResult{
		{Key: "s", Class: ClassHero, Value: "first-hero"},
		{Key: "s", Class: ClassHero, Value: "second-hero"},
		{Key: "s", Class: ClassSupporting, Value: "extra"},
	})

	assert.Equal(t, 1, target.primaryCalls)
	assert.Equal(t, "first-hero", target.primary.Value)
	require.Len(t, target.supporting, 2)
	assert.Equal(t, "second-hero", target.supporting[0].Value)
	assert.Equal(t, "extra", target.supporting[1].Value)
}

func TestProject_SupportingKeepsInputOrder(t *testing.T) {
	target := &fakeTarget{key: "s", kind: "gallery"}
	Project([]ProjectionTarget{target}, []JobResult{
		{Key: "s", Class: ClassPrimary, Value: "p"},
		{Key: "s", Class: ClassSupporting, Value: "s1"},
		{Key: "s", Class: ClassSupporting, Value: "s2"},
		{Key: "s", Class: ClassSupporting, Value: "s3"},
	})

	require.Len(t, target.supporting, 3)
	assert.Equal(t, "s1", target.supporting[0].Value)
	assert.Equal(t, "s2", target.supporting[1].Value)
	assert.Equal(t, "s3", target.supporting[2].Value)
}
