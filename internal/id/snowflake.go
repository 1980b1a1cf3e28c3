// Package id issues time-ordered int64 identifiers for users.
package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init sets up the process-wide node. Only the first call has any effect.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New panics if Init has not succeeded.
func New() int64 {
	if node == nil {
		panic("id: Init must be called before New")
	}
	return node.Generate().Int64()
}

// Parse accepts the decimal form used in URLs and token claims.
func Parse(s string) (int64, error) {
	v, err := snowflake.ParseString(s)
	if err != nil {
		return 0, err
	}
	return v.Int64(), nil
}
