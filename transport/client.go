package transport

import (
	"fmt"
	"net"
	"time"

	"github.com/double-fault/vsfs/wire"
)

// DefaultTimeout is the reference retransmit interval from mfs.c (T = 5).
const DefaultTimeout = 5 * time.Second

// Client is the MFS_* family reimplemented as methods on a handle: no
// package-level socket globals (mfs.c kept its socket and both addresses in
// file-level statics, which only ever supported one client per process).
type Client struct {
	conn    *net.UDPConn
	timeout time.Duration
}

// Dial opens a client socket bound to any free local port and targeting the
// server at addr, matching MFS_Init's UDP_Open/UDP_FillSockAddr pair.
func Dial(addr string) (*Client, error) {
	serverAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve %s: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, serverAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	return &Client{conn: conn, timeout: DefaultTimeout}, nil
}

// SetTimeout overrides the retransmit interval (default DefaultTimeout).
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// Close releases the client socket.
func (c *Client) Close() error {
	return c.conn.Close()
}

// call sends req and retransmits it every c.timeout until a reply arrives,
// reimplementing proc_call's select-with-timeout retry loop using
// SetReadDeadline instead of FD_SET.
func (c *Client) call(req []byte) ([]byte, error) {
	buf := make([]byte, wire.BufferSize)
	for {
		if _, err := c.conn.Write(req); err != nil {
			return nil, fmt.Errorf("transport: send: %w", err)
		}

		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, fmt.Errorf("transport: set deadline: %w", err)
		}

		n, err := c.conn.Read(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return nil, fmt.Errorf("transport: recv: %w", err)
		}
		return buf[:n], nil
	}
}

// Lookup is MFS_Lookup.
func (c *Client) Lookup(pinum int32, name string) (int32, error) {
	reply, err := c.call(wire.EncodeLookup(wire.LookupRequest{Pinum: pinum, Name: name}))
	if err != nil {
		return 0, err
	}
	r, err := wire.DecodeReply(reply, 0)
	if err != nil {
		return 0, err
	}
	return r.Ret, nil
}

// Creat is MFS_Creat.
func (c *Client) Creat(pinum int32, typ int32, name string) (int32, error) {
	reply, err := c.call(wire.EncodeCreat(wire.CreatRequest{Pinum: pinum, Type: typ, Name: name}))
	if err != nil {
		return 0, err
	}
	r, err := wire.DecodeReply(reply, 0)
	if err != nil {
		return 0, err
	}
	return r.Ret, nil
}

// Write is MFS_Write.
func (c *Client) Write(inum int32, buf []byte, offset int32, nbytes int32) (int32, error) {
	reply, err := c.call(wire.EncodeWrite(wire.WriteRequest{Inum: inum, Offset: offset, Nbytes: nbytes, Data: buf[:nbytes]}))
	if err != nil {
		return 0, err
	}
	r, err := wire.DecodeReply(reply, 0)
	if err != nil {
		return 0, err
	}
	return r.Ret, nil
}

// Read is MFS_Read: it copies up to nbytes into buf and returns the status.
func (c *Client) Read(inum int32, buf []byte, offset int32, nbytes int32) (int32, error) {
	reply, err := c.call(wire.EncodeRead(wire.ReadRequest{Inum: inum, Offset: offset, Nbytes: nbytes}))
	if err != nil {
		return 0, err
	}
	r, err := wire.DecodeReply(reply, int(nbytes))
	if err != nil {
		return 0, err
	}
	if r.Ret == 0 {
		copy(buf, r.Data)
	}
	return r.Ret, nil
}

// Unlink is MFS_Unlink.
func (c *Client) Unlink(pinum int32, name string) (int32, error) {
	reply, err := c.call(wire.EncodeUnlink(wire.UnlinkRequest{Pinum: pinum, Name: name}))
	if err != nil {
		return 0, err
	}
	r, err := wire.DecodeReply(reply, 0)
	if err != nil {
		return 0, err
	}
	return r.Ret, nil
}
