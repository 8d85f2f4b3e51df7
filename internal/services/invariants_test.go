package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// onCalculatorLock runs fn once, inside the caller's transaction, right after
// the first calculator row lock is taken. It stands in for a competing writer
// whose commit lands between a service's first read and its lock.
func onCalculatorLock(t *testing.T, db *gorm.DB, fn func(tx *gorm.DB)) {
	t.Helper()
	var fired bool
	err := db.Callback().Query().After("gorm:query").Register("test:on_calculator_lock", func(d *gorm.DB) {
		if fired || d.Error != nil || d.Statement.Table != "calculators" {
			return
		}
		if _, locked := d.Statement.Clauses["FOR"]; !locked {
			return
		}
		fired = true
		fn(d.Session(&gorm.Session{NewDB: true}))
	})
	require.NoError(t, err)
}
