package mixer

import (
	"github.com/eigerco/poe/internal/address"
)

// Instantiate creates a mixer over two existing points sources. The mixer
// subscribes itself to both, so it needs their admin rights or a preauth.
type Instantiate struct {
	Admin        *address.Address
	Left         address.Address
	Right        address.Address
	Function     Function
	PreauthHooks uint64
}

// SourcesQuery returns a SourcesResponse.
type SourcesQuery struct{}

type SourcesResponse struct {
	Left     address.Address
	Right    address.Address
	Function Function
}
