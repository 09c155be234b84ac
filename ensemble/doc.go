// Package ensemble propagates statistical uncertainty through the full
// decomposition pipeline.
//
// The [Driver] repeats perturb -> preprocess -> decompose -> normalize over
// many independently perturbed copies of an input matrix, one random stream
// per replica, and aggregates the surviving solutions into per-bin mean and
// percentile bands. Replicas are embarrassingly parallel and run on a
// worker pool; a replica that fails is recorded with its reason and
// excluded from the bands rather than aborting the run, and the success
// fraction is reported alongside the aggregates.
//
// Preprocessing collaborators (detector-response unfolding and the
// first-generation method) are pluggable [Stage] values; the package does
// not implement their internals. A [Store] can cache generated replicas on
// disk so interrupted runs resume without redrawing.
package ensemble
