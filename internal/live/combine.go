package live

import "context"

// Combine3 merges three sources with combine-latest semantics. Nothing is
// emitted until every source has produced a value; after that each value
// from any source emits fn applied to the latest value of all three.
//
// The output is conflated and is closed when ctx ends, when every source
// has closed, or when a source closes before producing its first value.
func Combine3[A, B, C, R any](
	ctx context.Context,
	a <-chan A,
	b <-chan B,
	c <-chan C,
	fn func(A, B, C) R,
) <-chan R {
	out := make(chan R, 1)
	go func() {
		defer close(out)

		var (
			va               A
			vb               B
			vc               C
			hasA, hasB, hasC bool
		)
		for a != nil || b != nil || c != nil {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-a:
				if !ok {
					if !hasA {
						return
					}
					a = nil
					continue
				}
				va, hasA = v, true
			case v, ok := <-b:
				if !ok {
					if !hasB {
						return
					}
					b = nil
					continue
				}
				vb, hasB = v, true
			case v, ok := <-c:
				if !ok {
					if !hasC {
						return
					}
					c = nil
					continue
				}
				vc, hasC = v, true
			}
			if hasA && hasB && hasC {
				offer(out, fn(va, vb, vc))
			}
		}
	}()
	return out
}
