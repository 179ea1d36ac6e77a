// internal/telegram/channels.go
package telegram

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Channel is one monitored chat.
type Channel struct {
	Name string `yaml:"name"`
	ID   int64  `yaml:"id"`
}

type channelsFile struct {
	Channels []Channel `yaml:"channels"`
}

// ChannelList is the persistent set of monitored channels. Mutations
// are written back to the YAML file before returning.
type ChannelList struct {
	mu       sync.RWMutex
	path     string
	channels []Channel
}

// LoadChannels reads the channels file. A missing file yields an empty
// list; the file is created on the first mutation.
func LoadChannels(path string) (*ChannelList, error) {
	cl := &ChannelList{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cl, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read channels file: %w", err)
	}

	var file channelsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse channels file: %w", err)
	}
	cl.channels = file.Channels
	return cl, nil
}

// Add registers a channel. Adding an ID that is already monitored is an
// error.
func (cl *ChannelList) Add(name string, id int64) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	for _, c := range cl.channels {
		if c.ID == id {
			return fmt.Errorf("channel %d already monitored as %q", id, c.Name)
		}
	}
	cl.channels = append(cl.channels, Channel{Name: name, ID: id})
	return cl.save()
}

// Remove drops a channel by ID.
func (cl *ChannelList) Remove(id int64) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	for i, c := range cl.channels {
		if c.ID == id {
			cl.channels = append(cl.channels[:i], cl.channels[i+1:]...)
			return cl.save()
		}
	}
	return fmt.Errorf("channel %d is not monitored", id)
}

// NameOf returns the configured name for the chat ID and whether it is
// monitored.
func (cl *ChannelList) NameOf(id int64) (string, bool) {
	cl.mu.RLock()
	defer cl.mu.RUnlock()

	for _, c := range cl.channels {
		if c.ID == id {
			return c.Name, true
		}
	}
	return "", false
}

// All returns a copy of the monitored channels.
func (cl *ChannelList) All() []Channel {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return append([]Channel(nil), cl.channels...)
}

func (cl *ChannelList) save() error {
	data, err := yaml.Marshal(channelsFile{Channels: cl.channels})
	if err != nil {
		return fmt.Errorf("failed to encode channels: %w", err)
	}
	if err := os.WriteFile(cl.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write channels file: %w", err)
	}
	return nil
}
