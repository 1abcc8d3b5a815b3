package utils

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	idNode     *snowflake.Node
	idNodeOnce sync.Once
)

func node() *snowflake.Node {
	idNodeOnce.Do(func() {
		n, err := snowflake.NewNode(1)
		if err != nil {
			panic(fmt.Sprintf("failed to create snowflake node: %v", err))
		}
		idNode = n
	})
	return idNode
}

// OrderNumber returns a globally unique order number. Snowflake IDs are
// timestamp-ordered and collision-free under concurrent checkouts.
func OrderNumber() string {
	return "GW" + node().Generate().String()
}

// TrackingNumber returns a globally unique tracking number.
func TrackingNumber() string {
	return "GWT" + node().Generate().Base36()
}
