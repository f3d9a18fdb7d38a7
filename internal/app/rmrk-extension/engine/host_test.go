package engine

import (
	"context"
	"testing"
	"time"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/protocol"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupClient(t *testing.T, observers ...CallObserver) (*protocol.Client, *Host) {
	t.Helper()
	host := NewHost(New(NewMemoryStorage()), observers...)
	return protocol.NewClient(host), host
}

func TestClientOverHostCollectionLifecycle(t *testing.T) {
	client, _ := setupClient(t)
	ctx := context.Background()

	metadata := []byte("ipfs://ipfs/QmTG9ekqrdMh3dsehLYjC19fUSmPR31Ds2h6Jd7LnMZ9c7")
	require.NoError(t, client.CreateCollection(ctx, asAlice, metadata, types.Uint32Ptr(1000), []byte("ROO")))

	info, err := client.Collections(ctx, asAlice, 0)
	require.NoError(t, err)
	require.Equal(t, &types.CollectionInfo{
		Issuer:    alice,
		Metadata:  metadata,
		Max:       types.Uint32Ptr(1000),
		Symbol:    []byte("ROO"),
		NftsCount: 0,
	}, info)

	require.Equal(t, types.CollectionID(1), client.CollectionIndex(ctx, asAlice))

	err = client.CreateCollection(ctx, asAlice, metadata, types.Uint32Ptr(0), []byte("ROO"))
	require.ErrorIs(t, err, protocol.ErrFailed)
}

func TestClientOverHostNesting(t *testing.T) {
	client, _ := setupClient(t)
	ctx := context.Background()
	require.NoError(t, client.CreateCollection(ctx, asAlice, nil, nil, nil))

	params := types.MintParams{
		CollectionID: 0,
		Metadata:     []byte("ipfs://nft"),
		Transferable: true,
		Resource: &types.ResourceSeed{
			Metadata:   []byte("ipfs://res"),
			Properties: []byte("p"),
			Priority:   2,
			Equip:      &types.EquipBinding{BaseID: 1, SlotID: 3},
		},
	}
	require.NoError(t, client.MintNFT(ctx, asAlice, alice, params))
	parent := types.NFTKey{CollectionID: 0, NftID: 0}
	require.NoError(t, client.MintNFTDirectlyToNFT(ctx, asAlice, parent, params))
	child := types.NFTKey{CollectionID: 0, NftID: 1}

	require.Equal(t, types.NftID(2), client.NextNftID(ctx, asAlice, 0))
	require.Equal(t, types.ResourceID(1), client.NextResourceID(ctx, asAlice, child))
	require.Equal(t, uint32(2), client.Priorities(ctx, asAlice, child, 0))

	resource, err := client.Resources(ctx, asAlice, child, 0)
	require.NoError(t, err)
	require.Equal(t, &types.EquipBinding{BaseID: 1, SlotID: 3}, resource.Equip)

	props, err := client.Properties(ctx, asAlice, child, 0)
	require.NoError(t, err)
	require.Equal(t, []byte("p"), props)

	require.NoError(t, client.EquippableBases(ctx, asAlice, child, 1))
	require.ErrorIs(t, client.EquippableBases(ctx, asAlice, child, 2), protocol.ErrFailed)
	require.NoError(t, client.EquippableSlots(ctx, asAlice, child, 0, 1, 3))
	require.ErrorIs(t, client.EquippableSlots(ctx, asAlice, child, 0, 1, 4), protocol.ErrFailed)

	require.ErrorIs(t, client.Send(ctx, asAlice, parent, types.OwnerOfNFT(child)), protocol.ErrFailed)

	locked, err := client.Lock(ctx, asAlice, parent)
	require.NoError(t, err)
	require.False(t, locked)

	require.ErrorIs(t, client.BurnNFT(ctx, asAlice, parent, 1), protocol.ErrFailed)
	require.NoError(t, client.BurnNFT(ctx, asAlice, parent, 2))

	info, err := client.Collections(ctx, asAlice, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(0), info.NftsCount)
	require.NoError(t, client.DestroyCollection(ctx, asAlice, 0))
}

func TestHostBareCallsNeverFail(t *testing.T) {
	_, host := setupClient(t)

	status, output, err := host.Call(context.Background(), asAlice, protocol.FuncPriorities, protocol.EncodeArgs(&protocol.ResourceArgs{CollectionID: 5}))
	require.NoError(t, err)
	require.Equal(t, protocol.StatusOk, status)
	require.Equal(t, []byte{0, 0, 0, 0}, output)
}

func TestHostFailureEncoding(t *testing.T) {
	_, host := setupClient(t)

	status, output, err := host.Call(context.Background(), asAlice, protocol.FuncLock, protocol.EncodeArgs(&protocol.NFTArgs{CollectionID: 1, NftID: 1}))
	require.NoError(t, err)
	require.Equal(t, protocol.StatusFailed, status)
	require.Equal(t, protocol.EncodeErr(), output)
}

func TestHostRejectsMalformedInputAndUnknownFuncs(t *testing.T) {
	_, host := setupClient(t)
	ctx := context.Background()

	_, _, err := host.Call(ctx, asAlice, protocol.FuncLock, []byte{1, 0, 0})
	require.ErrorIs(t, err, ErrMalformedInput)

	_, _, err = host.Call(ctx, asAlice, protocol.FuncCollectionIndex, []byte{0})
	require.ErrorIs(t, err, ErrMalformedInput)

	_, _, err = host.Call(ctx, asAlice, protocol.FuncID(3505), nil)
	require.ErrorIs(t, err, ErrUnknownFunc)
}

func TestHostCanceledContextIsHostError(t *testing.T) {
	client, _ := setupClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	defer func() {
		f, ok := protocol.AsFault(recover())
		require.True(t, ok)
		require.Equal(t, protocol.FaultHost, f.Kind)
		require.ErrorIs(t, f, context.Canceled)
	}()
	client.CollectionIndex(ctx, asAlice)
}

func TestHostNotifiesObservers(t *testing.T) {
	observer := &mockObserver{}
	observer.On("ObserveCall", protocol.FuncCreateCollection, OutcomeOk, mock.Anything).Once()
	observer.On("ObserveCall", protocol.FuncCreateCollection, OutcomeFailed, mock.Anything).Once()
	observer.On("ObserveCall", protocol.FuncID(3507), OutcomeError, mock.Anything).Once()

	_, host := setupClient(t, observer)
	ctx := context.Background()

	_, _, err := host.Call(ctx, asAlice, protocol.FuncCreateCollection, protocol.EncodeArgs(&protocol.CreateCollectionArgs{}))
	require.NoError(t, err)
	_, _, err = host.Call(ctx, asAlice, protocol.FuncCreateCollection, protocol.EncodeArgs(&protocol.CreateCollectionArgs{Max: types.Uint32Ptr(0)}))
	require.NoError(t, err)
	_, _, err = host.Call(ctx, asAlice, protocol.FuncID(3507), nil)
	require.Error(t, err)

	observer.AssertExpectations(t)
}

type mockObserver struct {
	mock.Mock
}

func (mo *mockObserver) ObserveCall(id protocol.FuncID, outcome string, elapsed time.Duration) {
	mo.Called(id, outcome, elapsed)
}
