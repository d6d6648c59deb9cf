// Package id hands out the int64 identifiers used for database rows.
package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init sets up the generator and must run before the first New. The node
// ID tells instances apart so two servers never mint the same value; it
// comes from configuration.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New returns the next identifier. Values sort roughly by creation time.
func New() int64 {
	return node.Generate().Int64()
}
