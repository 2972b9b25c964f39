package chain

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/opentensor/subtensor-go/errs"
	"github.com/opentensor/subtensor-go/scale"
	"github.com/sirupsen/logrus"
)

// WeightCommitState names a position in the per-(netuid, hotkey)
// commit-reveal state machine.
type WeightCommitState int

const (
	WeightIdle WeightCommitState = iota
	WeightCommitPending
	WeightCommitted
)

func (s WeightCommitState) String() string {
	switch s {
	case WeightCommitPending:
		return "CommitPending"
	case WeightCommitted:
		return "Committed"
	default:
		return "Idle"
	}
}

// weightKey identifies one concurrency slot: at most one in-flight
// commit-reveal cycle runs per (netuid, hotkey) pair.
type weightKey struct {
	netuid uint16
	hotkey string
}

// WeightManager drives the commit-reveal (or legacy set_weights) state
// machine for weight-setting extrinsics. One instance is shared by the
// facade across all subnets/hotkeys; in-flight state is tracked per key.
type WeightManager struct {
	engine *Engine
	logger *logrus.Entry

	mu       sync.Mutex
	inFlight map[weightKey]bool
}

// NewWeightManager constructs a manager bound to engine.
func NewWeightManager(engine *Engine, logger *logrus.Entry) *WeightManager {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &WeightManager{engine: engine, logger: logger.WithField("component", "weights"), inFlight: make(map[weightKey]bool)}
}

func (w *WeightManager) acquire(key weightKey) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.inFlight[key] {
		return false
	}
	w.inFlight[key] = true
	return true
}

func (w *WeightManager) release(key weightKey) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.inFlight, key)
}

// SetWeightsParams bundles the inputs to SetWeights; uids/values must be
// equal length. GenerateWeightHash rejects a mismatch on the commit-reveal
// path; the plaintext set_weights path passes both lists on unchecked.
type SetWeightsParams struct {
	Netuid              uint16
	UIDs                []uint16
	Values              []uint16
	VersionKey          uint64
	MaxRetries          int
	WaitForInclusion    bool
	WaitForFinalization bool
}

// SetWeights drives one full commit-reveal cycle (or, when the subnet has
// commit-reveal disabled, a single legacy set_weights extrinsic) for
// signerAddress/signer against params, retrying per the rate-limit policy.
func (w *WeightManager) SetWeights(ctx context.Context, signerAddress string, signer Signer, params SetWeightsParams) (SubmitResult, error) {
	key := weightKey{netuid: params.Netuid, hotkey: signerAddress}
	if !w.acquire(key) {
		return SubmitResult{}, fmt.Errorf("chain: commit already in flight for netuid %d hotkey %s", params.Netuid, signerAddress)
	}
	defer w.release(key)

	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	enabled, err := w.engine.commitRevealEnabled(ctx, params.Netuid)
	if err != nil {
		return SubmitResult{}, err
	}
	if !enabled {
		return w.legacySetWeights(ctx, signerAddress, signer, params)
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			for _, uid := range params.UIDs {
				ok, err := w.engine.rateLimitElapsed(ctx, params.Netuid, uid)
				if err != nil {
					return SubmitResult{}, err
				}
				if !ok {
					return SubmitResult{}, errs.ErrTooSoonToSetWeights
				}
			}
		}

		result, err := w.commitRevealCycle(ctx, signerAddress, signer, params)
		if err == nil && result.Success {
			return result, nil
		}
		lastErr = err
		w.logger.WithFields(logrus.Fields{"netuid": params.Netuid, "attempt": attempt + 1}).WithError(err).Warn("commit-reveal attempt failed, retrying")
	}
	if lastErr != nil {
		return SubmitResult{}, lastErr
	}
	return SubmitResult{Success: false, Message: "commit-reveal exhausted retries"}, nil
}

func (w *WeightManager) commitRevealCycle(ctx context.Context, signerAddress string, signer Signer, params SetWeightsParams) (SubmitResult, error) {
	salt, err := generateSalt()
	if err != nil {
		return SubmitResult{}, fmt.Errorf("chain: generate salt: %w", err)
	}
	hash, err := GenerateWeightHash(signerAddress, params.Netuid, params.UIDs, params.Values, salt, params.VersionKey)
	if err != nil {
		return SubmitResult{}, err
	}

	md, err := w.engine.Metadata.Get(ctx)
	if err != nil {
		return SubmitResult{}, err
	}
	_, commitEntry, ok := md.Call("SubtensorModule", "commit_weights")
	if !ok {
		return SubmitResult{}, fmt.Errorf("chain: call SubtensorModule.commit_weights not found")
	}
	var hashArgType scale.TypeID
	for _, arg := range commitEntry.Args {
		if arg.Name == "commit_hash" {
			hashArgType = arg.Type
		}
	}
	hashArg, err := BytesToValue(md.Registry, hashArgType, hash)
	if err != nil {
		return SubmitResult{}, err
	}

	commitCall, err := w.engine.ComposeCall(ctx, "SubtensorModule", "commit_weights", map[string]scale.Value{
		"netuid":      UintValue(uint64(params.Netuid)),
		"commit_hash": hashArg,
	})
	if err != nil {
		return SubmitResult{}, err
	}

	commitResult, err := w.engine.SignAndSend(ctx, commitCall, signerAddress, signer, SignWithHotkey, params.WaitForInclusion, params.WaitForFinalization)
	if err != nil || !commitResult.Success {
		return commitResult, err
	}

	commitBlock, err := w.engine.Blocks.CurrentBlock(ctx)
	if err != nil {
		return SubmitResult{}, err
	}

	if err := w.awaitRevealWindow(ctx, params.Netuid, commitBlock); err != nil {
		return SubmitResult{}, err
	}

	return w.reveal(ctx, signerAddress, signer, params, salt)
}

func (w *WeightManager) reveal(ctx context.Context, signerAddress string, signer Signer, params SetWeightsParams, salt []uint16) (SubmitResult, error) {
	saltArgs := make([]scale.Value, len(salt))
	for i, s := range salt {
		saltArgs[i] = UintValue(uint64(s))
	}
	uidArgs := make([]scale.Value, len(params.UIDs))
	for i, u := range params.UIDs {
		uidArgs[i] = UintValue(uint64(u))
	}
	valueArgs := make([]scale.Value, len(params.Values))
	for i, v := range params.Values {
		valueArgs[i] = UintValue(uint64(v))
	}

	revealCall, err := w.engine.ComposeCall(ctx, "SubtensorModule", "reveal_weights", map[string]scale.Value{
		"netuid":      UintValue(uint64(params.Netuid)),
		"uids":        scale.Value{Kind: scale.KindSequence, Seq: uidArgs},
		"values":      scale.Value{Kind: scale.KindSequence, Seq: valueArgs},
		"salt":        scale.Value{Kind: scale.KindSequence, Seq: saltArgs},
		"version_key": UintValue(params.VersionKey),
	})
	if err != nil {
		return SubmitResult{}, err
	}
	return w.engine.SignAndSend(ctx, revealCall, signerAddress, signer, SignWithHotkey, params.WaitForInclusion, params.WaitForFinalization)
}

// legacySetWeights issues the plaintext set_weights extrinsic directly,
// used when the subnet has commit-reveal disabled.
func (w *WeightManager) legacySetWeights(ctx context.Context, signerAddress string, signer Signer, params SetWeightsParams) (SubmitResult, error) {
	uidArgs := make([]scale.Value, len(params.UIDs))
	for i, u := range params.UIDs {
		uidArgs[i] = UintValue(uint64(u))
	}
	valueArgs := make([]scale.Value, len(params.Values))
	for i, v := range params.Values {
		valueArgs[i] = UintValue(uint64(v))
	}

	call, err := w.engine.ComposeCall(ctx, "SubtensorModule", "set_weights", map[string]scale.Value{
		"netuid":      UintValue(uint64(params.Netuid)),
		"dests":       scale.Value{Kind: scale.KindSequence, Seq: uidArgs},
		"weights":     scale.Value{Kind: scale.KindSequence, Seq: valueArgs},
		"version_key": UintValue(params.VersionKey),
	})
	if err != nil {
		return SubmitResult{}, err
	}
	return w.engine.SignAndSend(ctx, call, signerAddress, signer, SignWithHotkey, params.WaitForInclusion, params.WaitForFinalization)
}

// awaitRevealWindow blocks (polling current_block at a fixed interval)
// until current_block >= commit_block + reveal_period_epochs * tempo.
func (w *WeightManager) awaitRevealWindow(ctx context.Context, netuid uint16, commitBlock uint64) error {
	tempo, err := w.engine.tempo(ctx, netuid)
	if err != nil {
		return err
	}
	revealEpochs, err := w.engine.revealPeriodEpochs(ctx, netuid)
	if err != nil {
		return err
	}
	target := commitBlock + revealEpochs*uint64(tempo)

	ticker := time.NewTicker(6 * time.Second)
	defer ticker.Stop()
	for {
		current, err := w.engine.Blocks.CurrentBlock(ctx)
		if err != nil {
			return err
		}
		if current >= target {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func generateSalt() ([]uint16, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	salt := make([]uint16, 16)
	for i := range salt {
		salt[i] = uint16(buf[2*i])<<8 | uint16(buf[2*i+1])
	}
	return salt, nil
}

// commitRevealEnabled reads SubtensorModule.CommitRevealWeightsEnabled(netuid).
func (e *Engine) commitRevealEnabled(ctx context.Context, netuid uint16) (bool, error) {
	v, found, err := e.Get(ctx, "SubtensorModule", "CommitRevealWeightsEnabled", []scale.Value{UintValue(uint64(netuid))}, BlockAtLatest())
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	return v.Bool, nil
}

// rateLimitElapsed reports whether blocks_since_last_update(netuid, uid) >
// weights_rate_limit(netuid).
func (e *Engine) rateLimitElapsed(ctx context.Context, netuid, uid uint16) (bool, error) {
	current, err := e.Blocks.CurrentBlock(ctx)
	if err != nil {
		return false, err
	}
	lastUpdateVal, found, err := e.Get(ctx, "SubtensorModule", "LastUpdate", []scale.Value{UintValue(uint64(netuid))}, BlockAtLatest())
	if err != nil {
		return false, err
	}
	var lastUpdate uint64
	if found && lastUpdateVal.Kind == scale.KindSequence && int(uid) < len(lastUpdateVal.Seq) {
		lastUpdate, _ = lastUpdateVal.Seq[uid].AsUint64()
	}

	rateLimitVal, found, err := e.Get(ctx, "SubtensorModule", "WeightsSetRateLimit", []scale.Value{UintValue(uint64(netuid))}, BlockAtLatest())
	if err != nil {
		return false, err
	}
	var rateLimit uint64
	if found {
		rateLimit, _ = rateLimitVal.AsUint64()
	}

	return current-lastUpdate > rateLimit, nil
}

func (e *Engine) tempo(ctx context.Context, netuid uint16) (uint16, error) {
	v, found, err := e.Get(ctx, "SubtensorModule", "Tempo", []scale.Value{UintValue(uint64(netuid))}, BlockAtLatest())
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("chain: Tempo not found for netuid %d", netuid)
	}
	n, err := v.AsUint64()
	return uint16(n), err
}

func (e *Engine) revealPeriodEpochs(ctx context.Context, netuid uint16) (uint64, error) {
	v, found, err := e.Get(ctx, "SubtensorModule", "RevealPeriodEpochs", []scale.Value{UintValue(uint64(netuid))}, BlockAtLatest())
	if err != nil {
		return 0, err
	}
	if !found {
		return 1, nil
	}
	return v.AsUint64()
}
