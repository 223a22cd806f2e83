package socket

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"path/filepath"
	"time"
)

const (
	socketPrefix = "zcode-"
	socketSuffix = ".sock"

	// statusTimeout bounds how long a synchronous command waits for the
	// event loop
	statusTimeout = 10 * time.Second
)

// Server represents a Unix socket server for accepting external commands
type Server struct {
	socketPath string
	listener   net.Listener
	msgChan    chan Message
	stopChan   chan struct{}
}

// SocketDir returns $XDG_RUNTIME_DIR/zcode, or ~/.local/share/zcode when
// there is no runtime dir
func SocketDir() string {
	if xdgRuntime := os.Getenv("XDG_RUNTIME_DIR"); xdgRuntime != "" {
		return filepath.Join(xdgRuntime, "zcode")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "zcode")
}

// SocketPath returns the socket path of the instance with the given pid
func SocketPath(pid int) string {
	return filepath.Join(SocketDir(), fmt.Sprintf("%s%d%s", socketPrefix, pid, socketSuffix))
}

// NewServer creates a new Unix socket server
func NewServer(pid int) (*Server, error) {
	if err := os.MkdirAll(SocketDir(), 0700); err != nil {
		return nil, fmt.Errorf("failed to create socket directory: %w", err)
	}

	socketPath := SocketPath(pid)

	// A crashed instance with the same pid leaves its socket behind
	if err := os.RemoveAll(socketPath); err != nil {
		return nil, fmt.Errorf("failed to remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on socket: %w", err)
	}

	log.Printf("Socket server listening on: %s", socketPath)

	return &Server{
		socketPath: socketPath,
		listener:   listener,
		msgChan:    make(chan Message, 10),
		stopChan:   make(chan struct{}),
	}, nil
}

// Start begins accepting connections on the socket
func (s *Server) Start() {
	go s.acceptLoop()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopChan:
				return
			default:
				log.Printf("Error accepting connection: %v", err)
				continue
			}
		}
		go s.handleConnection(conn)
	}
}

// handleConnection processes a single client connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)
	reply := func(r *Response) {
		if err := encoder.Encode(r); err != nil {
			log.Printf("Error writing response: %v", err)
		}
	}

	var msg Message
	if err := decoder.Decode(&msg); err != nil {
		if err != io.EOF {
			log.Printf("Error decoding message: %v", err)
		}
		reply(&Response{Message: fmt.Sprintf("Invalid message format: %v", err)})
		return
	}

	switch msg.Command {
	case "":
		reply(&Response{Message: "Missing command field"})
		return
	case CommandSubmitPrompt, CommandStatus:
	default:
		reply(&Response{Message: fmt.Sprintf("Unknown command: %s", msg.Command)})
		return
	}

	if synchronous(msg.Command) {
		msg.ResponseChan = make(chan *Response, 1)
	}
	log.Printf("Socket message: %s", msg.Command)

	select {
	case s.msgChan <- msg:
		if msg.ResponseChan == nil {
			reply(&Response{Success: true, Message: "Command queued"})
			return
		}
		select {
		case response := <-msg.ResponseChan:
			reply(response)
		case <-time.After(statusTimeout):
			reply(&Response{Message: "Command timed out"})
		case <-s.stopChan:
			reply(&Response{Message: "Server is shutting down"})
		}
	case <-s.stopChan:
		reply(&Response{Message: "Server is shutting down"})
	}
}

// Messages returns the channel for receiving messages
func (s *Server) Messages() <-chan Message {
	return s.msgChan
}

// SocketPath returns the path to the Unix socket
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Stop stops the server and removes the socket file
func (s *Server) Stop() {
	close(s.stopChan)
	if s.listener != nil {
		s.listener.Close()
	}
	if s.socketPath != "" {
		os.Remove(s.socketPath)
	}
	log.Printf("Socket server stopped")
}
