package zhap

import "github.com/shimmeringbee/zhap/driver"

// NodeSetUp is raised once a node's accessory has been reconciled against a resolution pass.
type NodeSetUp struct {
	Node driver.Node
	UUID string
}

// NodeTornDown is raised once a removed node's accessory has been unregistered.
type NodeTornDown struct {
	Node driver.Node
	UUID string
}

type nodeReady struct {
	node driver.Node
}

type nodeRemoved struct {
	node driver.Node
}
