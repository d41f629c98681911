package agent

import (
	"crypto/tls"
	"net"
	"sync"

	"github.com/seglog/seglog/internal/auth"
	"github.com/seglog/seglog/internal/log"
	"github.com/seglog/seglog/internal/server"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
)

type Config struct {
	// ServerTLSConfig defines the configuration of the certificate
	// that's served to clients; nil serves plaintext.
	ServerTLSConfig *tls.Config
	// DataDir is the directory the log stores its segments in.
	DataDir string
	// Addr is the address the RPC server listens on.
	Addr string
	// Segment carries the log's segment caps and initial offset.
	Segment log.Config

	ACLModelFile  string
	ACLPolicyFile string
}

// An Agent runs on every service instance, setting up and connecting the
// components: the log, the authorizer, and the gRPC server serving the log.
type Agent struct {
	Config

	log    *log.Log
	server *grpc.Server

	shutdown     bool
	shutdowns    chan struct{}
	shutdownLock sync.Mutex
}

// New creates an Agent and runs the setup of all its components. After New
// returns, the agent is serving RPCs.
func New(config Config) (*Agent, error) {
	a := &Agent{
		Config:    config,
		shutdowns: make(chan struct{}),
	}

	setup := []func() error{
		a.setupLogger,
		a.setupLog,
		a.setupServer,
	}

	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}

	return a, nil
}

func (a *Agent) setupLogger() error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}

	zap.ReplaceGlobals(logger)
	return nil
}

func (a *Agent) setupLog() error {
	var err error
	a.log, err = log.NewLog(
		a.Config.DataDir,
		a.Config.Segment,
	)
	return err
}

func (a *Agent) setupServer() error {
	authorizer, err := auth.New(
		a.Config.ACLModelFile,
		a.Config.ACLPolicyFile,
	)
	if err != nil {
		return err
	}

	serverConfig := &server.Config{
		CommitLog:  a.log,
		Authorizer: authorizer,
	}

	var opts []grpc.ServerOption
	if a.Config.ServerTLSConfig != nil {
		creds := credentials.NewTLS(a.Config.ServerTLSConfig)
		opts = append(opts, grpc.Creds(creds))
	}

	a.server, err = server.NewGRPCServer(serverConfig, opts...)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", a.Config.Addr)
	if err != nil {
		return err
	}

	go func() {
		if err := a.server.Serve(ln); err != nil {
			_ = a.Shutdown()
		}
	}()

	return nil
}

// Shutdown stops the agent: it stops the RPC server, then closes the log.
// It is safe to call multiple times.
func (a *Agent) Shutdown() error {
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()

	if a.shutdown {
		return nil
	}

	a.shutdown = true
	close(a.shutdowns)

	shutdown := []func() error{
		func() error {
			a.server.GracefulStop()
			return nil
		},
		a.log.Close,
	}

	for _, fn := range shutdown {
		if err := fn(); err != nil {
			return err
		}
	}

	return nil
}
