package wsservice

import (
	"strings"
	"sync"

	"github.com/devicehive/devicehive-go/pkg/model"
)

// deviceSet holds non-owning references to the devices the service has
// an active interest in (subscribed for commands, or last fetched),
// deduplicated by case-insensitive GUID per the protocol's comparison
// rule. The stored pointer is the application's own device, handed
// back verbatim when routing inbound command/insert actions.
type deviceSet struct {
	mu      sync.Mutex
	devices map[string]*model.Device // lower(id) -> tracked device
}

func newDeviceSet() *deviceSet {
	return &deviceSet{devices: make(map[string]*model.Device)}
}

func (s *deviceSet) add(dev *model.Device) {
	s.mu.Lock()
	s.devices[strings.ToLower(dev.ID)] = dev
	s.mu.Unlock()
}

func (s *deviceSet) remove(id string) {
	s.mu.Lock()
	delete(s.devices, strings.ToLower(id))
	s.mu.Unlock()
}

// lookup returns the tracked device whose ID matches guid
// case-insensitively, or nil and false if none is tracked.
func (s *deviceSet) lookup(guid string) (*model.Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dev, ok := s.devices[strings.ToLower(guid)]
	return dev, ok
}

func (s *deviceSet) clear() {
	s.mu.Lock()
	s.devices = make(map[string]*model.Device)
	s.mu.Unlock()
}
