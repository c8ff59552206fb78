package syncsource

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/horizontalsystems/chainsync/blockchain"
	"github.com/horizontalsystems/chainsync/log"
	"gopkg.in/yaml.v3"
)

const subscriptionBufferSize = 16

var (
	ErrNoSyncSource         = errors.New("blockchain has no sync sources")
	ErrUnknownSyncSource    = errors.New("sync source does not belong to the blockchain")
	ErrDuplicatedSyncSource = errors.New("a sync source with the same name already exists")
	ErrNotCustomSyncSource  = errors.New("only custom sync sources can be deleted")
)

// Subscription receives the blockchain whose selected source changed
type Subscription struct {
	C  <-chan blockchain.Type
	ch chan blockchain.Type
	id int
}

// Manager resolves which source every blockchain syncs from
type Manager struct {
	defaults map[blockchain.Type][]EvmSyncSource
	storage  Storage
	log      *log.Logger

	subscriptionsLock sync.RWMutex
	subscriptions     map[int]*Subscription
	nextID            int
}

// NewManager builds a manager on top of the default table
func NewManager(keys Keys, testnet bool, storage Storage) *Manager {
	return &Manager{
		defaults:      DefaultSources(keys, testnet),
		storage:       storage,
		log:           log.WithFields("module", "syncsource"),
		subscriptions: make(map[int]*Subscription),
	}
}

// AllSyncSources returns the default sources of bt followed by the custom ones
func (m *Manager) AllSyncSources(bt blockchain.Type) ([]EvmSyncSource, error) {
	defaults := m.defaults[bt]
	custom, err := m.storage.CustomSources(bt)
	if err != nil {
		return nil, fmt.Errorf("error getting custom sources of %s: %w", bt, err)
	}
	all := make([]EvmSyncSource, 0, len(defaults)+len(custom))
	all = append(all, defaults...)
	all = append(all, custom...)
	return all, nil
}

// SyncSource returns the source selected for bt, or the first one if the selection is unknown
func (m *Manager) SyncSource(bt blockchain.Type) (EvmSyncSource, error) {
	sources, err := m.AllSyncSources(bt)
	if err != nil {
		return EvmSyncSource{}, err
	}
	if len(sources) == 0 {
		return EvmSyncSource{}, fmt.Errorf("%w: %s", ErrNoSyncSource, bt)
	}
	name, err := m.storage.SyncSourceName(bt)
	if err != nil {
		return EvmSyncSource{}, fmt.Errorf("error getting selected source of %s: %w", bt, err)
	}
	for _, s := range sources {
		if s.Name == name {
			return s, nil
		}
	}
	return sources[0], nil
}

// Save persists source as the selection of bt and notifies the subscribers
func (m *Manager) Save(source EvmSyncSource, bt blockchain.Type) error {
	sources, err := m.AllSyncSources(bt)
	if err != nil {
		return err
	}
	if !containsID(sources, source.ID) {
		return fmt.Errorf("%w: %s on %s", ErrUnknownSyncSource, source.ID, bt)
	}
	if err := m.storage.SaveSyncSourceName(bt, source.Name); err != nil {
		return err
	}
	m.log.Infof("sync source of %s set to %s", bt, source.Name)
	m.notify(bt)
	return nil
}

// AddCustom stores a user defined source. When tx is empty the explorer of the
// first default source is used.
func (m *Manager) AddCustom(bt blockchain.Type, name string, rpc RpcSource, tx *TransactionSource) (EvmSyncSource, error) {
	if _, err := blockchain.ParseType(bt.UID()); err != nil {
		return EvmSyncSource{}, err
	}
	if name == "" {
		return EvmSyncSource{}, fmt.Errorf("%w: empty name", ErrInvalidRpcSource)
	}
	if err := rpc.Validate(); err != nil {
		return EvmSyncSource{}, err
	}
	sources, err := m.AllSyncSources(bt)
	if err != nil {
		return EvmSyncSource{}, err
	}
	for _, s := range sources {
		if s.Name == name {
			return EvmSyncSource{}, fmt.Errorf("%w: %s", ErrDuplicatedSyncSource, name)
		}
	}
	var txSource TransactionSource
	switch {
	case tx != nil:
		txSource = *tx
	case len(m.defaults[bt]) > 0:
		txSource = m.defaults[bt][0].Transaction
	}
	source := NewEvmSyncSource(bt, name, rpc, txSource)
	source.Custom = true
	if err := m.storage.SaveCustomSource(bt, source); err != nil {
		return EvmSyncSource{}, err
	}
	return source, nil
}

// DeleteCustom removes a custom source. If it was the selected one, the chain falls back
// to its first source and the subscribers are notified.
func (m *Manager) DeleteCustom(bt blockchain.Type, id string) error {
	selected, err := m.SyncSource(bt)
	if err != nil {
		return err
	}
	for _, d := range m.defaults[bt] {
		if d.ID == id {
			return fmt.Errorf("%w: %s", ErrNotCustomSyncSource, d.Name)
		}
	}
	if err := m.storage.DeleteCustomSource(bt, id); err != nil {
		return err
	}
	if selected.ID == id {
		m.log.Infof("selected sync source of %s deleted, falling back to the default one", bt)
		if err := m.storage.SaveSyncSourceName(bt, ""); err != nil {
			return err
		}
		m.notify(bt)
	}
	return nil
}

// customSourcesFile is the yaml layout of CustomSourcesFile: blockchain uid -> sources
type customSourcesFile map[string][]struct {
	Name        string             `yaml:"name"`
	RPC         RpcSource          `yaml:"rpc"`
	Transaction *TransactionSource `yaml:"transaction,omitempty"`
}

// LoadCustomFile adds the sources declared on a yaml file. Sources whose name is already
// known are skipped, so the file can be loaded on every start.
func (m *Manager) LoadCustomFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file customSourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("error parsing %s: %w", path, err)
	}
	for uid, sources := range file {
		bt, err := blockchain.ParseType(uid)
		if err != nil {
			return err
		}
		for _, s := range sources {
			_, err := m.AddCustom(bt, s.Name, s.RPC, s.Transaction)
			if errors.Is(err, ErrDuplicatedSyncSource) {
				m.log.Debugf("custom source %s of %s already loaded", s.Name, bt)
				continue
			}
			if err != nil {
				return fmt.Errorf("error loading custom source %s of %s: %w", s.Name, bt, err)
			}
		}
	}
	return nil
}

// Subscribe returns a subscription notified on every selection change
func (m *Manager) Subscribe() *Subscription {
	m.subscriptionsLock.Lock()
	defer m.subscriptionsLock.Unlock()

	ch := make(chan blockchain.Type, subscriptionBufferSize)
	sub := &Subscription{C: ch, ch: ch, id: m.nextID}
	m.subscriptions[sub.id] = sub
	m.nextID++
	return sub
}

// Unsubscribe stops the notifications and closes the channel of sub
func (m *Manager) Unsubscribe(sub *Subscription) {
	m.subscriptionsLock.Lock()
	defer m.subscriptionsLock.Unlock()

	if _, ok := m.subscriptions[sub.id]; !ok {
		return
	}
	delete(m.subscriptions, sub.id)
	close(sub.ch)
}

func (m *Manager) notify(bt blockchain.Type) {
	m.subscriptionsLock.RLock()
	defer m.subscriptionsLock.RUnlock()

	for id, sub := range m.subscriptions {
		select {
		case sub.ch <- bt:
		default:
			m.log.Warnf("subscription %d is full, dropping sync source change of %s", id, bt)
		}
	}
}

func containsID(sources []EvmSyncSource, id string) bool {
	for _, s := range sources {
		if s.ID == id {
			return true
		}
	}
	return false
}
