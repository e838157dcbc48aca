package network

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/kaushikhazra/nexus-of-mind/queen/initwfn"
	qsolver "github.com/kaushikhazra/nexus-of-mind/queen/solver"
)

// entropyCoefficient (ε) and labelSmoothing (α) were tuned up from
// smaller values after the policy collapsed to a single favoured
// chunk; see SPEC_FULL.md §9.
const (
	entropyCoefficient = 0.5
	labelSmoothing     = 0.2
	numericFloor       = 1e-8
)

// kind distinguishes the two families of sub-network in the split-head
// policy: sigmoid scorers (N1, N2) trained with a regression target,
// and softmax classifiers (N3, N4, N5) trained with smoothed
// cross-entropy plus an entropy bonus.
type kind int

const (
	scorerHead kind = iota
	classifierHead
)

// subnet is one of the five small feed-forward heads making up the
// policy network. Each owns its own Gorgonia graph, batch size fixed
// at 1 since inference and training both operate on a single
// observation/experience at a time.
type subnet struct {
	name string
	kind kind

	g  *G.ExprGraph
	vm G.VM

	input  *G.Node // shape (1, nIn)
	output *G.Node // shape (1, nOut), post sigmoid/softmax
	target *G.Node // shape (1, nOut)
	loss   *G.Node

	layers []*fcLayer

	solver *qsolver.Solver
	nIn    int
	nOut   int
}

// newSubnet builds a sub-network with the given hidden layer sizes,
// wiring ReLU hidden activations and either a sigmoid or softmax
// output following the table in SPEC_FULL.md §4.3.
func newSubnet(name string, kind kind, nIn int, hidden []int, nOut int, learningRate float64, optimizer qsolver.Type, seed int64) (*subnet, error) {
	g := G.NewGraph()

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(1, nIn), G.WithName(name+"_input"), G.WithInit(G.Zeroes()))

	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		return nil, fmt.Errorf("newSubnet: %s: %v", name, err)
	}

	sizes := append(append([]int{}, hidden...), nOut)
	x := input
	layers := make([]*fcLayer, 0, len(sizes))
	prevSize := nIn
	for i, size := range sizes {
		act := ReLU()
		if i == len(sizes)-1 {
			act = Identity() // logits; final nonlinearity applied explicitly below
		}
		w := G.NewMatrix(g, tensor.Float64, G.WithShape(prevSize, size),
			G.WithName(fmt.Sprintf("%s_w%d", name, i)), G.WithInit(init.InitWFn()))
		b := G.NewVector(g, tensor.Float64, G.WithShape(size),
			G.WithName(fmt.Sprintf("%s_b%d", name, i)), G.WithInit(G.Zeroes()))
		layer := &fcLayer{weights: w, bias: b, act: act}

		var fwdErr error
		x, fwdErr = layer.fwd(x)
		if fwdErr != nil {
			return nil, fmt.Errorf("newSubnet: %s: layer %d: %v", name, i, fwdErr)
		}

		layers = append(layers, layer)
		prevSize = size
	}
	logits := x

	var output *G.Node
	switch kind {
	case scorerHead:
		output = G.Must(G.Sigmoid(logits))
	default:
		output = G.Must(G.SoftMax(logits))
	}

	target := G.NewMatrix(g, tensor.Float64, G.WithShape(1, nOut), G.WithName(name+"_target"), G.WithInit(G.Zeroes()))

	var loss *G.Node
	switch kind {
	case scorerHead:
		diff := G.Must(G.Sub(output, target))
		sq := G.Must(G.Square(diff))
		loss = G.Must(G.Mean(sq))
	default:
		logOutput := G.Must(G.Log(G.Must(G.Add(output, G.NewConstant(numericFloor)))))
		ce := G.Must(G.Neg(G.Must(G.Sum(G.Must(G.HadamardProd(target, logOutput))))))
		entropy := G.Must(G.Neg(G.Must(G.Sum(G.Must(G.HadamardProd(output, logOutput))))))
		loss = G.Must(G.Sub(ce, G.Must(G.Mul(G.NewConstant(entropyCoefficient), entropy))))
	}

	learnables := make(G.Nodes, 0, 2*len(layers))
	for _, l := range layers {
		learnables = append(learnables, l.weights, l.bias)
	}

	if _, err := G.Grad(loss, learnables...); err != nil {
		return nil, fmt.Errorf("newSubnet: %s: grad: %v", name, err)
	}

	vm := G.NewTapeMachine(g, G.BindDualValues(learnables...))

	solver, err := newHeadSolver(optimizer, learningRate)
	if err != nil {
		return nil, fmt.Errorf("newSubnet: %s: solver: %v", name, err)
	}

	return &subnet{
		name:   name,
		kind:   kind,
		g:      g,
		vm:     vm,
		input:  input,
		output: output,
		target: target,
		loss:   loss,
		layers: layers,
		solver: solver,
		nIn:    nIn,
		nOut:   nOut,
	}, nil
}

// Forward runs one inference pass and returns the sub-network's output
// vector.
func (s *subnet) Forward(x []float64) ([]float64, error) {
	if len(x) != s.nIn {
		return nil, fmt.Errorf("%s: forward: want %d inputs, got %d", s.name, s.nIn, len(x))
	}
	t := tensor.New(tensor.WithShape(1, s.nIn), tensor.WithBacking(append([]float64{}, x...)))
	if err := G.Let(s.input, t); err != nil {
		return nil, fmt.Errorf("%s: forward: %v", s.name, err)
	}
	if err := s.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("%s: forward: %v", s.name, err)
	}
	defer s.vm.Reset()

	out, ok := s.output.Value().Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("%s: forward: unexpected output type", s.name)
	}
	return append([]float64{}, out...), nil
}

// TrainStep runs forward+backward against target and takes one step of
// the head's solver scaled by the magnitude of reward, then zeroes the graph for
// the next call.
func (s *subnet) TrainStep(x, target []float64, reward float64) (float64, error) {
	if len(x) != s.nIn || len(target) != s.nOut {
		return 0, fmt.Errorf("%s: trainStep: shape mismatch", s.name)
	}

	xt := tensor.New(tensor.WithShape(1, s.nIn), tensor.WithBacking(append([]float64{}, x...)))
	tt := tensor.New(tensor.WithShape(1, s.nOut), tensor.WithBacking(append([]float64{}, target...)))
	if err := G.Let(s.input, xt); err != nil {
		return 0, err
	}
	if err := G.Let(s.target, tt); err != nil {
		return 0, err
	}

	if err := s.vm.RunAll(); err != nil {
		return 0, fmt.Errorf("%s: trainStep: %v", s.name, err)
	}

	mag := math.Abs(reward)
	for _, l := range s.layers {
		if err := scaleGrad(l.weights, mag); err != nil {
			s.vm.Reset()
			return 0, err
		}
		if err := scaleGrad(l.bias, mag); err != nil {
			s.vm.Reset()
			return 0, err
		}
	}

	model := make([]G.ValueGrad, 0, 2*len(s.layers))
	for _, l := range s.layers {
		model = append(model, l.weights, l.bias)
	}
	if err := s.solver.Step(model); err != nil {
		s.vm.Reset()
		return 0, fmt.Errorf("%s: trainStep: solver: %v", s.name, err)
	}

	lossVal := 0.0
	if v, ok := s.loss.Value().Data().(float64); ok {
		lossVal = v * mag
	}

	s.vm.Reset()
	return lossVal, nil
}

// newHeadSolver builds the Gorgonia solver a head trains with. RMSProp
// is offered as an alternative to the default Adam for tuning passes
// that find Adam's momentum term destabilizes the smaller scorer heads.
func newHeadSolver(optimizer qsolver.Type, learningRate float64) (*qsolver.Solver, error) {
	switch optimizer {
	case qsolver.RMSProp:
		return qsolver.NewDefaultRMSProp(learningRate, 1)
	case qsolver.Vanilla:
		return qsolver.NewVanilla(learningRate, 1, -1)
	default:
		return qsolver.NewAdam(learningRate, 1e-8, 0.9, 0.999, 1, 1.0)
	}
}

// scaleGrad multiplies a learnable's gradient tensor in place by mag,
// implementing the "loss multiplied by |reward|" rule from
// SPEC_FULL.md §4.3 without needing a reward node in the graph.
func scaleGrad(n *G.Node, mag float64) error {
	g, err := n.Grad()
	if err != nil {
		return fmt.Errorf("scaleGrad: %s: %v", n.Name(), err)
	}
	dense, ok := g.(*tensor.Dense)
	if !ok {
		return fmt.Errorf("scaleGrad: %s: unexpected gradient type", n.Name())
	}
	_, err = dense.MulScalar(mag, true)
	return err
}

// Smooth applies label smoothing to a one-hot target: the true class
// gets 1-α+α/k, every other class gets α/k.
func Smooth(classes int, trueIndex int, alpha float64) []float64 {
	out := make([]float64, classes)
	floor := alpha / float64(classes)
	for i := range out {
		out[i] = floor
	}
	if trueIndex >= 0 && trueIndex < classes {
		out[trueIndex] += 1 - alpha
	}
	return out
}
