// Package transport implements the UDP client and server halves of the
// network protocol described in spec.md §6, built on top of wire's
// datagram codec and a mounted *vsfs.FileSystem.
package transport

import (
	"errors"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/double-fault/vsfs"
	"github.com/double-fault/vsfs/wire"
)

// Server answers requests against a single mounted filesystem, one at a
// time, mirroring server.c's single-threaded read/dispatch/reply loop: the
// server never starts reading the next datagram until the current one's
// reply has been sent.
type Server struct {
	fsys *vsfs.FileSystem
	conn *net.UDPConn
	log  *logrus.Entry
}

// Listen opens a UDP socket on addr and returns a Server ready to Serve.
func Listen(addr string, fsys *vsfs.FileSystem, log *logrus.Entry) (*Server, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s: %w", addr, err)
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Server{fsys: fsys, conn: conn, log: log}, nil
}

// Addr returns the socket's local address, useful for tests that bind to
// port 0 and need to discover what port the kernel picked.
func (s *Server) Addr() net.Addr {
	return s.conn.LocalAddr()
}

// Close releases the listening socket.
func (s *Server) Close() error {
	return s.conn.Close()
}

// Serve runs the receive/dispatch/reply loop until the socket is closed;
// any other read error is logged and the loop continues.
func (s *Server) Serve() error {
	buf := make([]byte, wire.BufferSize)
	for {
		n, from, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.WithError(err).Warn("transport: read error, continuing")
			continue
		}
		if n == 0 {
			continue
		}

		reply := s.dispatch(buf[:n])
		if _, err := s.conn.WriteToUDP(reply, from); err != nil {
			s.log.WithError(err).WithField("peer", from).Warn("transport: reply write failed")
		}
	}
}

func (s *Server) dispatch(req []byte) []byte {
	op, err := wire.PeekOp(req)
	if err != nil {
		s.log.WithError(err).Warn("transport: malformed request header")
		return wire.EncodeReply(wire.Reply{Ret: -1})
	}

	log := s.log.WithField("op", op.String())

	switch op {
	case wire.OpLookup:
		return s.handleLookup(log, req)
	case wire.OpWrite:
		return s.handleWrite(log, req)
	case wire.OpRead:
		return s.handleRead(log, req)
	case wire.OpCreat:
		return s.handleCreat(log, req)
	case wire.OpUnlink:
		return s.handleUnlink(log, req)
	default:
		log.Warn("transport: unknown opcode")
		return wire.EncodeReply(wire.Reply{Ret: -1})
	}
}

func (s *Server) handleLookup(log *logrus.Entry, req []byte) []byte {
	r, err := wire.DecodeLookup(req)
	if err != nil {
		log.WithError(err).Warn("transport: decode lookup")
		return wire.EncodeReply(wire.Reply{Ret: -1})
	}
	inum, err := s.fsys.Lookup(r.Pinum, r.Name)
	if err != nil {
		log.WithFields(logrus.Fields{"pinum": r.Pinum, "name": r.Name, "err": err}).Debug("lookup failed")
		return wire.EncodeReply(wire.Reply{Ret: lookupErrorCode(err)})
	}
	return wire.EncodeReply(wire.Reply{Ret: inum})
}

func (s *Server) handleWrite(log *logrus.Entry, req []byte) []byte {
	r, err := wire.DecodeWrite(req)
	if err != nil {
		log.WithError(err).Warn("transport: decode write")
		return wire.EncodeReply(wire.Reply{Ret: -1})
	}
	if err := s.fsys.Write(r.Inum, r.Data, r.Offset, r.Nbytes); err != nil {
		log.WithFields(logrus.Fields{"inum": r.Inum, "err": err}).Debug("write failed")
		return wire.EncodeReply(wire.Reply{Ret: -1})
	}
	return wire.EncodeReply(wire.Reply{Ret: 0})
}

func (s *Server) handleRead(log *logrus.Entry, req []byte) []byte {
	r, err := wire.DecodeRead(req)
	if err != nil {
		log.WithError(err).Warn("transport: decode read")
		return wire.EncodeReply(wire.Reply{Ret: -1})
	}
	out := make([]byte, r.Nbytes)
	if err := s.fsys.Read(r.Inum, out, r.Offset, r.Nbytes); err != nil {
		log.WithFields(logrus.Fields{"inum": r.Inum, "err": err}).Debug("read failed")
		return wire.EncodeReply(wire.Reply{Ret: -1})
	}
	return wire.EncodeReply(wire.Reply{Ret: 0, Data: out})
}

func (s *Server) handleCreat(log *logrus.Entry, req []byte) []byte {
	r, err := wire.DecodeCreat(req)
	if err != nil {
		log.WithError(err).Warn("transport: decode creat")
		return wire.EncodeReply(wire.Reply{Ret: -1})
	}
	if err := s.fsys.Creat(r.Pinum, vsfs.InodeType(r.Type), r.Name); err != nil {
		log.WithFields(logrus.Fields{"pinum": r.Pinum, "name": r.Name, "err": err}).Debug("creat failed")
		return wire.EncodeReply(wire.Reply{Ret: -1})
	}
	return wire.EncodeReply(wire.Reply{Ret: 0})
}

func (s *Server) handleUnlink(log *logrus.Entry, req []byte) []byte {
	r, err := wire.DecodeUnlink(req)
	if err != nil {
		log.WithError(err).Warn("transport: decode unlink")
		return wire.EncodeReply(wire.Reply{Ret: -1})
	}
	if err := s.fsys.Unlink(r.Pinum, r.Name); err != nil {
		log.WithFields(logrus.Fields{"pinum": r.Pinum, "name": r.Name, "err": err}).Debug("unlink failed")
		return wire.EncodeReply(wire.Reply{Ret: -1})
	}
	return wire.EncodeReply(wire.Reply{Ret: 0})
}

// lookupErrorCode preserves ufs_lookup's distinct negative codes (spec §6/§7:
// -2 bad inum range, -3 unallocated parent, -4 non-directory parent) instead
// of collapsing straight to -1, the way every other op does.
func lookupErrorCode(err error) int32 {
	switch {
	case errors.Is(err, vsfs.ErrBadInum):
		return -2
	case errors.Is(err, vsfs.ErrNoSuchInode):
		return -3
	case errors.Is(err, vsfs.ErrNotDirectory):
		return -4
	default:
		return -1
	}
}
