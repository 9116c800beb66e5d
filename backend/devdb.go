package backend

import (
	"context"

	"google.golang.org/grpc"
)

const devdbGetDeviceInfo = "/devdb.DevDB/getDeviceInfo"

// DevDBClient queries the device database.
type DevDBClient struct {
	cc grpc.ClientConnInterface
}

// NewDevDBClient creates a DevDB client on an existing connection
func NewDevDBClient(cc grpc.ClientConnInterface) *DevDBClient {
	return &DevDBClient{cc: cc}
}

// GetDeviceInfo looks up all devices in one call. The reply holds one entry
// per device in request order.
func (c *DevDBClient) GetDeviceInfo(ctx context.Context, devices []string) (*DeviceInfoReply, error) {
	reply := new(DeviceInfoReply)
	err := c.cc.Invoke(ctx, devdbGetDeviceInfo, &DeviceList{Device: devices}, reply, grpc.ForceCodec(Codec))
	if err != nil {
		return nil, openError(err, "DevDBClient", "GetDeviceInfo")
	}
	return reply, nil
}
