// Package predefined ships ready-made service definitions for common
// backing services. Each definition names the upstream image, the port the
// service listens on inside the container, and the detectors that recognize
// a successful start.
//
// The table is static data; callers pass a definition to berth.New and own
// the resulting controller. Definitions are values, so adjusting one (a
// different tag, a tighter timeout) is a plain struct copy.
package predefined

import (
	"net/http"
	"sort"

	"github.com/schmitthub/berth/pkg/berth"
)

// CouchDB runs an Apache CouchDB instance on container port 5984.
func CouchDB() berth.Definition {
	return berth.Definition{
		Name:   "couchdb",
		Image:  "couchdb",
		Port:   5984,
		Scheme: "http",
		Env:    []string{"COUCHDB_USER=admin", "COUCHDB_PASSWORD=admin"},
		Credentials: &berth.Credentials{
			User:     "admin",
			Password: "admin",
		},
		Detectors: []berth.DetectorFactory{
			berth.LogWatch(berth.LogMarkers{
				Ready: `Apache CouchDB has started`,
				Fatal: `no space left on device`,
			}),
		},
	}
}

// Postgres runs a PostgreSQL instance on container port 5432.
func Postgres() berth.Definition {
	return berth.Definition{
		Name:   "postgres",
		Image:  "postgres",
		Port:   5432,
		Scheme: "postgres",
		Env:    []string{"POSTGRES_PASSWORD=postgres"},
		Credentials: &berth.Credentials{
			User:     "postgres",
			Password: "postgres",
		},
		Detectors: []berth.DetectorFactory{
			// The entrypoint starts a throwaway server for initdb first, so
			// the ready line appears twice; the detector only trusts the one
			// printed after initialization is done.
			berth.LogWatch(berth.LogMarkers{
				Ready: `listening on IPv4 address "0\.0\.0\.0", port 5432`,
				Fatal: `initdb: error|no space left on device`,
			}),
		},
	}
}

// MongoDB runs a MongoDB instance on container port 27017.
func MongoDB() berth.Definition {
	return berth.Definition{
		Name:   "mongo",
		Image:  "mongo",
		Port:   27017,
		Scheme: "mongodb",
		Detectors: []berth.DetectorFactory{
			berth.LogWatch(berth.LogMarkers{
				Ready: `[Ww]aiting for connections`,
				Fatal: `[Ff]atal [Aa]ssertion|no space left on device`,
			}),
		},
	}
}

// Redis runs a Redis instance on container port 6379.
func Redis() berth.Definition {
	return berth.Definition{
		Name:   "redis",
		Image:  "redis",
		Port:   6379,
		Scheme: "redis",
		Detectors: []berth.DetectorFactory{
			berth.LogWatch(berth.LogMarkers{
				Ready: `Ready to accept connections`,
				Fatal: `Fatal error|no space left on device`,
			}),
		},
	}
}

// Consul runs a HashiCorp Consul dev agent with the HTTP API on container
// port 8500. Readiness requires both the log marker and a leader elected.
func Consul() berth.Definition {
	return berth.Definition{
		Name:   "consul",
		Image:  "hashicorp/consul",
		Port:   8500,
		Scheme: "http",
		Cmd:    []string{"agent", "-dev", "-client", "0.0.0.0"},
		Detectors: []berth.DetectorFactory{
			berth.LogWatch(berth.LogMarkers{
				Ready: `cluster leadership acquired`,
			}),
			berth.HTTPProbe{
				Path: "/v1/status/leader",
			}.Detector(),
		},
	}
}

// MinIO runs a MinIO object store with the S3 API on container port 9000.
func MinIO() berth.Definition {
	return berth.Definition{
		Name:   "minio",
		Image:  "minio/minio",
		Port:   9000,
		Scheme: "http",
		Cmd:    []string{"server", "/data"},
		Env: []string{
			"MINIO_ROOT_USER=minioadmin",
			"MINIO_ROOT_PASSWORD=minioadmin",
		},
		Credentials: &berth.Credentials{
			User:     "minioadmin",
			Password: "minioadmin",
		},
		Detectors: []berth.DetectorFactory{
			berth.HTTPProbe{
				Path: "/minio/health/live",
				Fatal: func(resp *http.Response) bool {
					return resp.StatusCode == http.StatusServiceUnavailable
				},
			}.Detector(),
		},
	}
}

// table maps definition names to their constructors. Constructors, not
// shared values: every caller gets an independent copy to mutate.
var table = map[string]func() berth.Definition{
	"couchdb":  CouchDB,
	"postgres": Postgres,
	"mongo":    MongoDB,
	"redis":    Redis,
	"consul":   Consul,
	"minio":    MinIO,
}

// Names returns the sorted names of all predefined services.
func Names() []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a fresh copy of the named definition.
func Lookup(name string) (berth.Definition, bool) {
	ctor, ok := table[name]
	if !ok {
		return berth.Definition{}, false
	}
	return ctor(), true
}

// All returns fresh copies of every predefined definition, sorted by name.
func All() []berth.Definition {
	defs := make([]berth.Definition, 0, len(table))
	for _, name := range Names() {
		def, _ := Lookup(name)
		defs = append(defs, def)
	}
	return defs
}
