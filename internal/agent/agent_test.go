package agent

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	api "github.com/seglog/seglog/api/v1"
	"github.com/seglog/seglog/internal/config"
	"github.com/stretchr/testify/require"
	dynaport "github.com/travisjeffery/go-dynaport"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/status"
)

// TestAgent stands up a full instance over mutual TLS and runs a
// produce/consume round-trip against it through the public client.
func TestAgent(t *testing.T) {
	certs, err := config.GenerateTestCerts(t.TempDir())
	require.NoError(t, err)

	serverTLSConfig, err := config.SetupTLSConfig(
		config.TLSConfig{
			CertFile:      certs.ServerCertFile,
			KeyFile:       certs.ServerKeyFile,
			CAFile:        certs.CAFile,
			Server:        true,
			ServerAddress: "127.0.0.1",
		},
	)
	require.NoError(t, err)

	ports := dynaport.Get(1)
	addr := fmt.Sprintf("127.0.0.1:%d", ports[0])

	agent, err := New(
		Config{
			ServerTLSConfig: serverTLSConfig,
			DataDir:         t.TempDir(),
			Addr:            addr,
			ACLModelFile:    filepath.Join("testdata", "model.conf"),
			ACLPolicyFile:   filepath.Join("testdata", "policy.csv"),
		},
	)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, agent.Shutdown())
	}()

	clientTLSConfig, err := config.SetupTLSConfig(
		config.TLSConfig{
			CertFile: certs.RootClientCertFile,
			KeyFile:  certs.RootClientKeyFile,
			CAFile:   certs.CAFile,
			Server:   false,
		},
	)
	require.NoError(t, err)

	conn, err := grpc.NewClient(
		addr,
		grpc.WithTransportCredentials(
			credentials.NewTLS(clientTLSConfig),
		),
	)
	require.NoError(t, err)
	defer conn.Close()

	client := api.NewLogClient(conn)

	ctx := context.Background()

	want := []byte("hello world")

	produce, err := client.Produce(
		ctx,
		&api.ProduceRequest{
			Record: &api.Record{Value: want},
		},
	)
	require.NoError(t, err)
	require.Equal(t, uint64(0), produce.Offset)

	consume, err := client.Consume(
		ctx,
		&api.ConsumeRequest{Offset: produce.Offset},
	)
	require.NoError(t, err)
	require.Equal(t, want, consume.Record.Value)

	_, err = client.Consume(
		ctx,
		&api.ConsumeRequest{Offset: produce.Offset + 1},
	)
	require.Error(t, err)
	require.Equal(t, codes.OutOfRange, status.Code(err))
}
