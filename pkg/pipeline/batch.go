package pipeline

// Batch tracks the generation calls started for one prompt.
//
// The ids are fixed when the batch is created and never change; the
// completion and edge ids are index aligned.
type Batch struct {
	PromptID      string
	CompletionIDs []string
	EdgeIDs       []string // prompt -> completion edges

	done chan struct{}
	err  error
}

func newBatch(promptID string, completionIDs, edgeIDs []string) *Batch {
	return &Batch{
		PromptID:      promptID,
		CompletionIDs: completionIDs,
		EdgeIDs:       edgeIDs,
		done:          make(chan struct{}),
	}
}

// Size returns the number of generation calls in the batch.
func (b *Batch) Size() int { return len(b.CompletionIDs) }

// Done returns a channel that is closed once the batch has settled.
func (b *Batch) Done() <-chan struct{} { return b.done }

// Wait blocks until the batch has settled and returns its error.
func (b *Batch) Wait() error {
	<-b.done
	return b.err
}

// Err returns the batch error once settled, nil before that or on success.
// A failed batch reports an *errors.BatchError.
func (b *Batch) Err() error {
	select {
	case <-b.done:
		return b.err
	default:
		return nil
	}
}

func (b *Batch) finish(err error) {
	b.err = err
	close(b.done)
}
