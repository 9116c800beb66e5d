package bridge

import (
	"context"
	"log/slog"
	"time"

	"github.com/fermi-controls/extapi-acsys/backend"
	"github.com/fermi-controls/extapi-acsys/errors"
	"github.com/fermi-controls/extapi-acsys/metric"
)

// DeviceInfoQuerier performs batch device lookups. *backend.DevDBClient
// implements it.
type DeviceInfoQuerier interface {
	GetDeviceInfo(ctx context.Context, devices []string) (*backend.DeviceInfoReply, error)
}

// DeviceInfo is the database description of one device.
type DeviceInfo struct {
	Description string
	Reading     *DeviceProperty
	Setting     *DeviceProperty
	DigControl  []DigControlEntry
}

// DeviceProperty holds the engineering units of a reading or setting.
type DeviceProperty struct {
	PrimaryUnits *string
	CommonUnits  *string
}

// DigControlEntry is one digital control command of a device.
type DigControlEntry struct {
	Value     int32
	ShortName string
	LongName  string
}

// DeviceInfoBridge answers device metadata queries from DevDB.
type DeviceInfoBridge struct {
	devdb   DeviceInfoQuerier
	logger  *slog.Logger
	metrics *bridgeMetrics
}

// NewDeviceInfoBridge creates a bridge over devdb. registry may be nil.
func NewDeviceInfoBridge(devdb DeviceInfoQuerier, logger *slog.Logger, registry *metric.MetricsRegistry) *DeviceInfoBridge {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "devinfo-bridge")
	return &DeviceInfoBridge{
		devdb:   devdb,
		logger:  logger,
		metrics: newBridgeMetrics(registry, "devinfo", "devdb", logger),
	}
}

// Query looks up all devices in one backend call. The result always has
// len(devices) entries and entry i always answers devices[i]. When the call
// fails every entry carries the same failure message.
func (b *DeviceInfoBridge) Query(ctx context.Context, devices []string) []Result[DeviceInfo] {
	n := len(devices)
	start := time.Now()

	reply, err := b.devdb.GetDeviceInfo(ctx, append([]string(nil), devices...))
	if err != nil {
		b.metrics.callFailed()
		connectionFailed(ctx, b.logger, err)
		return failAll[DeviceInfo](n, err.Error())
	}
	b.metrics.callDone(time.Since(start))

	if len(reply.Set) != n {
		b.logger.Warn("device info reply size mismatch",
			"requested", n, "received", len(reply.Set))
	}

	results := make([]Result[DeviceInfo], n)
	for i := range results {
		var entry *backend.InfoEntry
		if i < len(reply.Set) {
			entry = reply.Set[i]
		}
		results[i] = infoResult(entry)
		if !results[i].IsOk() {
			b.metrics.item(errors.ErrEmptyResponse)
			b.logger.Debug("item-level failure", "device", devices[i], "error", results[i].Message())
		} else {
			b.metrics.item(nil)
		}
	}
	return results
}

func infoResult(entry *backend.InfoEntry) Result[DeviceInfo] {
	if entry == nil {
		return Fail[DeviceInfo](errors.ErrEmptyResponse.Error())
	}

	switch r := entry.Result.(type) {
	case backend.InfoDevice:
		if r.Device == nil {
			return Fail[DeviceInfo](errors.ErrEmptyResponse.Error())
		}
		return Ok(deviceInfo(r.Device))
	case backend.InfoErrMsg:
		return Fail[DeviceInfo](r.ErrMsg)
	default:
		return Fail[DeviceInfo](errors.ErrEmptyResponse.Error())
	}
}

func deviceInfo(d *backend.DeviceInfo) DeviceInfo {
	info := DeviceInfo{
		Description: d.Description,
		Reading:     deviceProperty(d.Reading),
		Setting:     deviceProperty(d.Setting),
	}
	if d.DigControl != nil {
		info.DigControl = make([]DigControlEntry, 0, len(d.DigControl.Cmds))
		for _, cmd := range d.DigControl.Cmds {
			if cmd == nil {
				continue
			}
			info.DigControl = append(info.DigControl, DigControlEntry{
				Value:     int32(cmd.Value),
				ShortName: cmd.ShortName,
				LongName:  cmd.LongName,
			})
		}
	}
	return info
}

func deviceProperty(p *backend.Property) *DeviceProperty {
	if p == nil {
		return nil
	}
	return &DeviceProperty{
		PrimaryUnits: cloneString(p.PrimaryUnits),
		CommonUnits:  cloneString(p.CommonUnits),
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
