package backend

import (
	stderrors "errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/fermi-controls/extapi-acsys/errors"
)

// Clients bundles one client per backend service. The underlying
// connections are shared by every call and are safe for concurrent use.
type Clients struct {
	DPM   *DPMClient
	DevDB *DevDBClient
	Clock *ClockClient

	conns    []*grpc.ClientConn
	services []string
}

// Dial creates lazy connections to every configured backend. No network
// traffic happens until the first call, so an unreachable service surfaces
// as a per-call ErrBackendUnavailable rather than a startup failure.
func Dial(cfg Config, logger *slog.Logger) (*Clients, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapInvalid(err, "Clients", "Dial", "config validation")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithConnectParams(grpc.ConnectParams{
			Backoff:           backoff.DefaultConfig,
			MinConnectTimeout: cfg.ConnectTimeout(),
		}),
	}

	c := &Clients{}
	dial := func(service, addr string) (*grpc.ClientConn, error) {
		conn, err := grpc.NewClient(addr, opts...)
		if err != nil {
			return nil, errors.WrapFatal(err, "Clients", "Dial", "create "+service+" client")
		}
		c.conns = append(c.conns, conn)
		c.services = append(c.services, service)
		logger.Info("Backend client configured", "service", service, "address", addr)
		return conn, nil
	}

	dpm, err := dial("dpm", cfg.DPM)
	if err != nil {
		return nil, err
	}
	devdb, err := dial("devdb", cfg.DevDB)
	if err != nil {
		c.Close()
		return nil, err
	}
	clock, err := dial("clock", cfg.Clock)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.DPM = NewDPMClient(dpm)
	c.DevDB = NewDevDBClient(devdb)
	c.Clock = NewClockClient(clock)
	return c, nil
}

// States reports the connectivity state of each backend connection keyed
// by service name
func (c *Clients) States() map[string]connectivity.State {
	states := make(map[string]connectivity.State, len(c.conns))
	for i, conn := range c.conns {
		states[c.services[i]] = conn.GetState()
	}
	return states
}

// Close releases every connection
func (c *Clients) Close() error {
	var errs []error
	for _, conn := range c.conns {
		if err := conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.conns = nil
	c.services = nil
	return stderrors.Join(errs...)
}
