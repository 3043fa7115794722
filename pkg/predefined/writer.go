package predefined

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/schmitthub/berth/pkg/berth"
)

// Settings is the connection information of a started service in the shape
// test harnesses and child processes consume.
type Settings struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// SettingsFor captures the connection settings of a started service.
func SettingsFor(svc *berth.Service) Settings {
	s := Settings{
		Name: svc.Name,
		URL:  svc.URL(),
		Host: svc.Host,
		Port: svc.Port,
	}
	if svc.Credentials != nil {
		s.User = svc.Credentials.User
		s.Password = svc.Credentials.Password
	}
	return s
}

// WriteSettings writes the service's connection settings to path as YAML.
func WriteSettings(svc *berth.Service, path string) error {
	data, err := yaml.Marshal(SettingsFor(svc))
	if err != nil {
		return fmt.Errorf("marshaling service settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing service settings: %w", err)
	}
	return nil
}
