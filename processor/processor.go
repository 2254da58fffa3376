// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package processor executes manifests against a SystemAPI.
package processor

import (
	"fmt"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/prometheus/client_golang/prometheus"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/txprocessor/manifest"
	"github.com/ava-labs/txprocessor/types"
)

const defaultNamespace = "processor"

var _ TransformHandler = (*run)(nil)

type Config struct {
	Logger log.Logger
	// Registerer receives the processor metrics. Defaults to a private
	// registry.
	Registerer prometheus.Registerer
	Namespace  string
}

// Processor runs manifests. Runs are independent; a Processor only shares
// its logger and metrics between them.
type Processor struct {
	log     log.Logger
	metrics *metrics
}

func New(config Config) (*Processor, error) {
	if config.Logger == nil {
		config.Logger = log.New("module", "processor")
	}
	if config.Registerer == nil {
		config.Registerer = prometheus.NewRegistry()
	}
	if config.Namespace == "" {
		config.Namespace = defaultNamespace
	}
	metrics, err := newMetrics(config.Namespace, config.Registerer)
	if err != nil {
		return nil, fmt.Errorf("failed to register processor metrics: %w", err)
	}
	return &Processor{
		log:     config.Logger,
		metrics: metrics,
	}, nil
}

type runOptions struct {
	childIntents []ids.ID
	tracer       HandleTracer
}

type RunOption func(*runOptions)

// WithChildIntents makes the hashes of the transaction's subintents
// available to IntentRef placeholders, in NamedIntent order.
func WithChildIntents(hashes []ids.ID) RunOption {
	return func(o *runOptions) { o.childIntents = hashes }
}

func WithTracer(tracer HandleTracer) RunOption {
	return func(o *runOptions) { o.tracer = tracer }
}

// run is the state of a single manifest execution.
type run struct {
	api      SystemAPI
	worktop  Worktop
	authZone AuthZone
	handles  *handles
	blobs    map[ids.ID][]byte

	log     log.Logger
	metrics *metrics
}

// Run executes [encodedInstructions] against [api]. Every instruction
// produces exactly one output. Any error aborts the whole run; the caller is
// responsible for discarding the state changes made through [api].
func (p *Processor) Run(
	api SystemAPI,
	encodedInstructions []byte,
	reservations []GlobalAddressReservation,
	blobs map[ids.ID][]byte,
	opts ...RunOption,
) ([]InstructionOutput, error) {
	start := time.Now()
	p.metrics.runs.Inc()

	outputs, err := p.runManifest(api, encodedInstructions, reservations, blobs, opts)
	if err != nil {
		p.metrics.failedRuns.Inc()
		p.log.Debug("manifest run failed", "err", err)
		return nil, err
	}
	p.log.Info("manifest run completed",
		"instructions", len(outputs),
		"duration", time.Since(start),
	)
	return outputs, nil
}

func (p *Processor) runManifest(
	api SystemAPI,
	encodedInstructions []byte,
	reservations []GlobalAddressReservation,
	blobs map[ids.ID][]byte,
	opts []RunOption,
) ([]InstructionOutput, error) {
	options := runOptions{tracer: noopTracer{}}
	for _, opt := range opts {
		opt(&options)
	}

	instructions, err := manifest.DecodeInstructions(encodedInstructions)
	if err != nil {
		return nil, &DecodeError{Context: DecodeCallData, Err: err}
	}

	worktop, err := api.NewWorktop()
	if err != nil {
		return nil, fmt.Errorf("failed to create worktop: %w", err)
	}
	r := &run{
		api:      api,
		worktop:  worktop,
		authZone: api.AuthZone(),
		handles:  newHandles(options.tracer),
		blobs:    blobs,
		log:      p.log,
		metrics:  p.metrics,
	}

	r.handles.location = manifest.PreambleLocation
	for _, reservation := range reservations {
		r.handles.createAddressReservation(reservation.Reservation)
	}
	for _, hash := range options.childIntents {
		r.handles.createIntent(hash)
	}

	outputs := make([]InstructionOutput, 0, len(instructions))
	for index, instruction := range instructions {
		r.handles.location = manifest.InstructionLocation(index)
		r.log.Debug("executing instruction",
			"index", index,
			"instruction", instruction.Name(),
		)

		output, err := r.execute(instruction.Effect())
		if err != nil {
			return nil, &InstructionError{
				Index:       index,
				Instruction: instruction.Name(),
				Err:         err,
			}
		}
		r.metrics.instructions.WithLabelValues(instruction.Name()).Inc()
		outputs = append(outputs, output)
	}

	if err := r.worktop.Drop(); err != nil {
		return nil, fmt.Errorf("failed to drop worktop: %w", err)
	}
	return outputs, nil
}

func (r *run) execute(effect manifest.Effect) (InstructionOutput, error) {
	switch effect := effect.(type) {
	case manifest.CreateBucketEffect:
		return noOutput(), r.takeFromWorktop(effect.Source.Amount)
	case manifest.CreateProofEffect:
		return noOutput(), r.createProof(effect.Source)
	case manifest.ConsumeBucketEffect:
		return r.consumeBucket(effect)
	case manifest.ConsumeProofEffect:
		return noOutput(), r.consumeProof(effect)
	case manifest.CloneProofEffect:
		return noOutput(), r.cloneProof(effect.Proof)
	case manifest.DropManyProofsEffect:
		return noOutput(), r.dropManyProofs(effect)
	case manifest.InvocationEffect:
		return r.invoke(effect)
	case manifest.CreateAddressAndReservationEffect:
		return noOutput(), r.allocateGlobalAddress(effect)
	case manifest.WorktopAssertionEffect:
		return noOutput(), r.assertWorktop(effect.Assertion)
	default:
		return InstructionOutput{}, fmt.Errorf("%w: %T", ErrUnexpectedEffect, effect)
	}
}

func (r *run) takeFromWorktop(amount manifest.ResourceAmount) error {
	var (
		bucket ids.ID
		err    error
	)
	switch amount.Kind {
	case manifest.AmountFungible:
		bucket, err = r.worktop.Take(amount.Resource, amount.Amount)
	case manifest.AmountNonFungibles:
		bucket, err = r.worktop.TakeNonFungibles(amount.Resource, amount.IDs)
	case manifest.AmountAll:
		bucket, err = r.worktop.TakeAll(amount.Resource)
	default:
		return fmt.Errorf("%w: take of %s", ErrUnexpectedEffect, amount)
	}
	if err != nil {
		return fmt.Errorf("failed to take %s from worktop: %w", amount, err)
	}
	r.handles.createBucket(bucket)
	return nil
}

func (r *run) createProof(source manifest.ProofSource) error {
	var (
		proof ids.ID
		err   error
	)
	switch source.Kind {
	case manifest.ProofFromAuthZonePop:
		proof, err = r.authZone.Pop()
	case manifest.ProofFromAuthZone:
		proof, err = r.createProofFromAuthZone(source.Amount)
	case manifest.ProofFromBucket:
		proof, err = r.createProofFromBucket(source.Bucket, source.Amount)
	default:
		err = fmt.Errorf("%w: proof source %d", ErrUnexpectedEffect, source.Kind)
	}
	if err != nil {
		return err
	}
	r.handles.createProof(proof)
	return nil
}

func (r *run) createProofFromAuthZone(amount manifest.ResourceAmount) (ids.ID, error) {
	switch amount.Kind {
	case manifest.AmountFungible:
		return r.authZone.CreateProofOfAmount(amount.Resource, amount.Amount)
	case manifest.AmountNonFungibles:
		return r.authZone.CreateProofOfNonFungibles(amount.Resource, amount.IDs)
	case manifest.AmountAll:
		return r.authZone.CreateProofOfAll(amount.Resource)
	default:
		return ids.Empty, fmt.Errorf("%w: auth zone proof of %s", ErrUnexpectedEffect, amount)
	}
}

func (r *run) createProofFromBucket(id manifest.Bucket, amount manifest.ResourceAmount) (ids.ID, error) {
	bucket, err := r.handles.getBucket(id)
	if err != nil {
		return ids.Empty, err
	}
	switch amount.Kind {
	case manifest.AmountFungible:
		return r.api.CreateProofFromBucketOfAmount(bucket, amount.Amount)
	case manifest.AmountNonFungibles:
		return r.api.CreateProofFromBucketOfNonFungibles(bucket, amount.IDs)
	case manifest.AmountAll:
		return r.api.CreateProofFromBucketOfAll(bucket)
	default:
		return ids.Empty, fmt.Errorf("%w: bucket proof of %s", ErrUnexpectedEffect, amount)
	}
}

func (r *run) consumeBucket(effect manifest.ConsumeBucketEffect) (InstructionOutput, error) {
	bucket, err := r.handles.takeBucket(effect.Bucket)
	if err != nil {
		return InstructionOutput{}, err
	}
	switch effect.Destination {
	case manifest.BucketToWorktop:
		return noOutput(), r.worktop.Put(bucket)
	case manifest.BucketBurned:
		resource, err := r.api.BucketResource(bucket)
		if err != nil {
			return InstructionOutput{}, err
		}
		args, err := manifest.EncodeValue(manifest.NewTuple(manifest.Own{ID: bucket}))
		if err != nil {
			return InstructionOutput{}, &DecodeError{Context: DecodeArgs, Err: err}
		}
		rtn, err := r.api.CallMethod(resource, manifest.ModuleMain, "burn", args)
		if err != nil {
			return InstructionOutput{}, fmt.Errorf("failed to burn bucket %d: %w", effect.Bucket, err)
		}
		if err := r.routeReturn(rtn); err != nil {
			return InstructionOutput{}, err
		}
		return callReturn(rtn), nil
	default:
		return InstructionOutput{}, fmt.Errorf("%w: bucket to %s", ErrUnexpectedEffect, effect.Destination)
	}
}

func (r *run) consumeProof(effect manifest.ConsumeProofEffect) error {
	proof, err := r.handles.takeProof(effect.Proof)
	if err != nil {
		return err
	}
	switch effect.Destination {
	case manifest.ProofToAuthZone:
		return r.authZone.Push(proof)
	case manifest.ProofDropped:
		return r.api.DropProof(proof)
	default:
		return fmt.Errorf("%w: proof to %s", ErrUnexpectedEffect, effect.Destination)
	}
}

func (r *run) cloneProof(id manifest.Proof) error {
	proof, err := r.handles.getProof(id)
	if err != nil {
		return err
	}
	clone, err := r.api.CloneProof(proof)
	if err != nil {
		return fmt.Errorf("failed to clone proof %d: %w", id, err)
	}
	r.handles.createProof(clone)
	return nil
}

func (r *run) dropManyProofs(effect manifest.DropManyProofsEffect) error {
	if effect.DropAllNamedProofs {
		for _, id := range r.handles.liveProofs() {
			proof, err := r.handles.takeProof(id)
			if err != nil {
				return err
			}
			if err := r.api.DropProof(proof); err != nil {
				return fmt.Errorf("failed to drop proof %d: %w", id, err)
			}
		}
	}
	switch {
	case effect.DropAllAuthZoneSignatureProofs && effect.DropAllAuthZoneNonSignatureProofs:
		return r.authZone.Clear()
	case effect.DropAllAuthZoneSignatureProofs:
		return r.authZone.ClearSignatureProofs()
	case effect.DropAllAuthZoneNonSignatureProofs:
		return r.authZone.ClearRegularProofs()
	default:
		return nil
	}
}

func (r *run) allocateGlobalAddress(effect manifest.CreateAddressAndReservationEffect) error {
	reservation, address, err := r.api.AllocateGlobalAddress(types.BlueprintID{
		Package: effect.Package,
		Name:    effect.Blueprint,
	})
	if err != nil {
		return fmt.Errorf("failed to allocate address for %s:%s: %w", effect.Package, effect.Blueprint, err)
	}
	r.handles.createAddressReservation(reservation)
	r.handles.createNamedAddress(address)
	return nil
}

func (r *run) assertWorktop(assertion manifest.WorktopAssertion) error {
	switch assertion.Kind {
	case manifest.AssertContainsAny:
		return r.worktop.AssertContains(assertion.Resource)
	case manifest.AssertContainsAmount:
		return r.worktop.AssertContainsAmount(assertion.Resource, assertion.Amount)
	case manifest.AssertContainsNonFungibles:
		return r.worktop.AssertContainsNonFungibles(assertion.Resource, assertion.IDs)
	default:
		return fmt.Errorf("%w: assertion %d", ErrUnexpectedEffect, assertion.Kind)
	}
}

// resolveAddress returns the address [address] refers to. Named addresses
// must resolve to a global node.
func (r *run) resolveAddress(address manifest.DynamicAddress) (ids.ID, error) {
	if !address.IsNamed {
		return address.Static, nil
	}
	resolved, err := r.handles.getNamedAddress(address.Named)
	if err != nil {
		return ids.Empty, err
	}
	if !types.IsGlobal(resolved) {
		return ids.Empty, fmt.Errorf("%w: %s", ErrNotGlobalAddress, resolved)
	}
	return resolved, nil
}

func (r *run) invoke(effect manifest.InvocationEffect) (InstructionOutput, error) {
	inv := effect.Kind
	var target ids.ID
	switch inv.Kind {
	case manifest.InvokeFunction:
		pkg, err := r.resolveAddress(inv.Package)
		if err != nil {
			return InstructionOutput{}, err
		}
		if inv.Package.IsNamed && !types.IsGlobalPackage(pkg) {
			return InstructionOutput{}, fmt.Errorf("%w: %s", ErrNotPackageAddress, pkg)
		}
		target = pkg
	default:
		address, err := r.resolveAddress(inv.Address)
		if err != nil {
			return InstructionOutput{}, err
		}
		target = address
	}

	args, err := TransformArgs(effect.Args, r)
	if err != nil {
		return InstructionOutput{}, err
	}
	encoded, err := manifest.EncodeValue(args)
	if err != nil {
		return InstructionOutput{}, &DecodeError{Context: DecodeArgs, Err: err}
	}

	var rtn []byte
	switch inv.Kind {
	case manifest.InvokeFunction:
		rtn, err = r.api.CallFunction(target, inv.Blueprint, inv.Function, encoded)
	case manifest.InvokeMethod:
		rtn, err = r.api.CallMethod(target, inv.Module, inv.Method, encoded)
	case manifest.InvokeDirectMethod:
		rtn, err = r.api.CallDirectMethod(target, inv.Method, encoded)
	default:
		err = fmt.Errorf("%w: invocation kind %d", ErrUnexpectedEffect, inv.Kind)
	}
	if err != nil {
		return InstructionOutput{}, fmt.Errorf("call to %s failed: %w", inv, err)
	}
	if err := r.routeReturn(rtn); err != nil {
		return InstructionOutput{}, err
	}
	return callReturn(rtn), nil
}

func (r *run) ReplaceBucket(id manifest.Bucket) (ids.ID, error) {
	return r.handles.takeBucket(id)
}

func (r *run) ReplaceProof(id manifest.Proof) (ids.ID, error) {
	return r.handles.takeProof(id)
}

func (r *run) ReplaceAddressReservation(id manifest.AddressReservation) (ids.ID, error) {
	return r.handles.takeAddressReservation(id)
}

func (r *run) ReplaceNamedAddress(id manifest.NamedAddress) (ids.ID, error) {
	return r.handles.getNamedAddress(id)
}

func (r *run) ReplaceIntent(id manifest.NamedIntent) (ids.ID, error) {
	return r.handles.getIntent(id)
}

func (r *run) ReplaceBlob(hash ids.ID) ([]byte, error) {
	blob, ok := r.blobs[hash]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, hash)
	}
	return blob, nil
}

func (r *run) ReplaceExpression(expression manifest.Expression) ([]ids.ID, error) {
	switch expression {
	case manifest.EntireWorktop:
		return r.worktop.Drain()
	case manifest.EntireAuthZone:
		return r.authZone.Drain()
	default:
		return nil, fmt.Errorf("%w: expression %s", ErrUnexpectedEffect, expression)
	}
}
