package nodeaddr

import (
	"fmt"
	"net"
	"strconv"
)

// Node identifies a remote endpoint.
type Node struct {
	ID   int
	Host string
	Port int
}

// IDString returns the id of the node as a string.
func (n Node) IDString() string {
	return strconv.Itoa(n.ID)
}

// Addr returns the node in host:port format.
func (n Node) Addr() string {
	return net.JoinHostPort(n.Host, strconv.Itoa(n.Port))
}

func (n Node) String() string {
	return fmt.Sprintf("%s (id: %d)", n.Addr(), n.ID)
}
