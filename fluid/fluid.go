// Package fluid advances the doubly-periodic 2-D incompressible
// Navier-Stokes velocity field one time step via a spectral
// pressure-projection scheme: explicit upwind advection, forward FFT,
// a Fourier-symbol pressure solve, a combined viscous/pressure Helmholtz
// correction, and inverse FFT.
package fluid

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/mjibson/go-dsp/fft"

	"github.com/pthm-cable/ibmesh/errs"
	"github.com/pthm-cable/ibmesh/mesh"
)

// Step advances m.VelocityU/V in place by one time step of size dt, given
// Reynolds number re (kinematic viscosity nu = 1/re). m.ForceX/Y supplies
// the spread body force for this step; callers are expected to have
// called spread.Spread beforehand. fftThreads bounds the worker pool that
// fans the per-row and per-column 1-D FFT passes out across goroutines
// (1 runs them sequentially on the calling goroutine).
func Step(m *mesh.Mesh, dt, re float64, fftThreads int) error {
	if re <= 0 {
		return errs.NewConfigError("re", "Reynolds number must be positive")
	}
	nx, ny := m.Nx, m.Ny
	dx, dy := m.DeltaX(), m.DeltaY()

	pool := newRowPool(fftThreads)
	defer pool.stop()

	au, av := upwindAdvection(m, dx, dy)

	ru := make([][]float64, ny)
	rv := make([][]float64, ny)
	for y := 0; y < ny; y++ {
		ru[y] = make([]float64, nx)
		rv[y] = make([]float64, nx)
		for x := 0; x < nx; x++ {
			ru[y][x] = m.VelocityU[y][x] + dt*(m.ForceX[y][x]-au[y][x])
			rv[y][x] = m.VelocityV[y][x] + dt*(m.ForceY[y][x]-av[y][x])
		}
	}

	ruHat := forwardFFT2(ru, pool)
	rvHat := forwardFFT2(rv, pool)

	sx, s2x := fourierSymbols(nx)
	sy, s2y := fourierSymbols(ny)

	pHat := make([][]complex128, ny)
	for y := range pHat {
		pHat[y] = make([]complex128, nx)
	}
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			if isGaugeOrNyquist(x, y, nx, ny) {
				continue
			}
			denom := (dt / re) * (sq(s2x[x]/dx) + sq(s2y[y]/dy))
			if denom == 0 {
				return errs.NewNumericError("pressure solve denominator is zero outside the gauge/Nyquist modes")
			}
			num := -1i * (complex(s2x[x]/dx, 0)*ruHat[y][x] + complex(s2y[y]/dy, 0)*rvHat[y][x])
			pHat[y][x] = num / complex(denom, 0)
		}
	}

	uHatNew := make([][]complex128, ny)
	vHatNew := make([][]complex128, ny)
	for y := range uHatNew {
		uHatNew[y] = make([]complex128, nx)
		vHatNew[y] = make([]complex128, nx)
	}
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			op := 1 + (4*dt/re)*(sq(sx[x]/dx)+sq(sy[y]/dy))
			uHatNew[y][x] = (ruHat[y][x] - complex(0, dt/(re*dx))*complex(s2x[x], 0)*pHat[y][x]) / complex(op, 0)
			vHatNew[y][x] = (rvHat[y][x] - complex(0, dt/(re*dy))*complex(s2y[y], 0)*pHat[y][x]) / complex(op, 0)
		}
	}

	uNew := inverseFFT2Real(uHatNew, pool)
	vNew := inverseFFT2Real(vHatNew, pool)
	for y := 0; y < ny; y++ {
		copy(m.VelocityU[y], uNew[y])
		copy(m.VelocityV[y], vNew[y])
	}
	return nil
}

func sq(x float64) float64 { return x * x }

// fourierSymbols returns, for a grid of size n, sin(pi*k/n) and
// sin(2*pi*k/n) for k = 0..n-1: the first-derivative and
// pressure-projection Fourier symbols used throughout Step.
func fourierSymbols(n int) (s, s2 []float64) {
	s = make([]float64, n)
	s2 = make([]float64, n)
	for k := 0; k < n; k++ {
		s[k] = math.Sin(math.Pi * float64(k) / float64(n))
		s2[k] = math.Sin(2 * math.Pi * float64(k) / float64(n))
	}
	return s, s2
}

// isGaugeOrNyquist reports whether (x,y) is one of the four modes the
// pressure solve must leave at zero: the DC mode and the three Nyquist
// combinations.
func isGaugeOrNyquist(x, y, nx, ny int) bool {
	return (x == 0 || x == nx/2) && (y == 0 || y == ny/2)
}

// upwindAdvection computes the nonlinear advection terms Au, Av via
// first-order upwind differencing, each direction's neighbour index
// wrapped inline as (i+1+n)%n.
func upwindAdvection(m *mesh.Mesh, dx, dy float64) (au, av [][]float64) {
	nx, ny := m.Nx, m.Ny
	au = make([][]float64, ny)
	av = make([][]float64, ny)
	for y := 0; y < ny; y++ {
		au[y] = make([]float64, nx)
		av[y] = make([]float64, nx)
		ym := (y - 1 + ny) % ny
		yp := (y + 1) % ny
		for x := 0; x < nx; x++ {
			xm := (x - 1 + nx) % nx
			xp := (x + 1) % nx

			u := m.VelocityU[y][x]
			v := m.VelocityV[y][x]

			var dudx, dudy, dvdx, dvdy float64
			if u > 0 {
				dudx = (u - m.VelocityU[y][xm]) / dx
				dvdx = (v - m.VelocityV[y][xm]) / dx
			} else {
				dudx = (m.VelocityU[y][xp] - u) / dx
				dvdx = (m.VelocityV[y][xp] - v) / dx
			}
			if v > 0 {
				dudy = (u - m.VelocityU[ym][x]) / dy
				dvdy = (v - m.VelocityV[ym][x]) / dy
			} else {
				dudy = (m.VelocityU[yp][x] - u) / dy
				dvdy = (m.VelocityV[yp][x] - v) / dy
			}

			au[y][x] = u*dudx + v*dudy
			av[y][x] = u*dvdx + v*dvdy
		}
	}
	return au, av
}

// forwardFFT2 performs a 2-D forward FFT dimension-by-dimension: rows
// first, then columns, following the retrieval pack's spectral-solver
// pattern of driving github.com/mjibson/go-dsp/fft one axis at a time.
// Each pass is fanned out across pool's workers, one row or column per
// task.
func forwardFFT2(grid [][]float64, pool *rowPool) [][]complex128 {
	ny := len(grid)
	nx := len(grid[0])

	rowFFT := make([][]complex128, ny)
	pool.run(ny, func(y int) {
		row := make([]complex128, nx)
		for x := 0; x < nx; x++ {
			row[x] = complex(grid[y][x], 0)
		}
		rowFFT[y] = fft.FFT(row)
	})

	out := make([][]complex128, ny)
	for y := range out {
		out[y] = make([]complex128, nx)
	}
	pool.run(nx, func(x int) {
		col := make([]complex128, ny)
		for y := 0; y < ny; y++ {
			col[y] = rowFFT[y][x]
		}
		colFFT := fft.FFT(col)
		for y := 0; y < ny; y++ {
			out[y][x] = colFFT[y]
		}
	})
	return out
}

// inverseFFT2Real performs a 2-D inverse FFT dimension-by-dimension and
// returns the real part. go-dsp's fft.IFFT already applies the 1/n
// normalisation per axis, so the two passes together give the full
// 1/(Nx*Ny) forward/inverse normalisation without any extra scaling.
// Each pass is fanned out across pool's workers, as in forwardFFT2.
func inverseFFT2Real(hat [][]complex128, pool *rowPool) [][]float64 {
	ny := len(hat)
	nx := len(hat[0])

	colIFFT := make([][]complex128, ny)
	for y := range colIFFT {
		colIFFT[y] = make([]complex128, nx)
	}
	pool.run(nx, func(x int) {
		col := make([]complex128, ny)
		for y := 0; y < ny; y++ {
			col[y] = hat[y][x]
		}
		res := fft.IFFT(col)
		for y := 0; y < ny; y++ {
			colIFFT[y][x] = res[y]
		}
	})

	out := make([][]float64, ny)
	pool.run(ny, func(y int) {
		res := fft.IFFT(colIFFT[y])
		out[y] = make([]float64, nx)
		for x := 0; x < nx; x++ {
			out[y][x] = real(res[x])
		}
	})
	return out
}

// roundTripError returns the maximum absolute difference between grid
// and IFFT(FFT(grid)), used by tests to check the FFT's normalisation.
func roundTripError(grid [][]float64) float64 {
	pool := newRowPool(1)
	defer pool.stop()
	hat := forwardFFT2(grid, pool)
	back := inverseFFT2Real(hat, pool)
	maxErr := 0.0
	for y := range grid {
		for x := range grid[y] {
			if d := cmplx.Abs(complex(grid[y][x]-back[y][x], 0)); d > maxErr {
				maxErr = d
			}
		}
	}
	return maxErr
}

// rowPool is a bounded worker pool that fans row-wise or column-wise FFT
// passes out across goroutines, following the retrieval pack's
// persistent-worker-pool pattern (channel dispatch over chunked index
// ranges, torn down with a stop signal and a sync.WaitGroup).
type rowPool struct {
	workers  int
	workChan chan rowChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
}

type rowChunk struct {
	lo, hi int
	fn     func(i int)
}

// newRowPool starts workers goroutines (clamped to at least 1) ready to
// run chunked index ranges; callers must call stop when done.
func newRowPool(workers int) *rowPool {
	if workers < 1 {
		workers = 1
	}
	p := &rowPool{
		workers:  workers,
		workChan: make(chan rowChunk, workers),
		doneChan: make(chan struct{}, workers),
		stopChan: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *rowPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			for i := chunk.lo; i < chunk.hi; i++ {
				chunk.fn(i)
			}
			p.doneChan <- struct{}{}
		}
	}
}

// run applies fn to every index in [0,n), split into p.workers
// contiguous chunks dispatched to the worker pool. With a single worker
// or a trivially small n it runs fn inline on the calling goroutine.
func (p *rowPool) run(n int, fn func(i int)) {
	if p.workers <= 1 || n <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	chunkSize := (n + p.workers - 1) / p.workers
	sent := 0
	for lo := 0; lo < n; lo += chunkSize {
		hi := lo + chunkSize
		if hi > n {
			hi = n
		}
		p.workChan <- rowChunk{lo: lo, hi: hi, fn: fn}
		sent++
	}
	for i := 0; i < sent; i++ {
		<-p.doneChan
	}
}

// stop signals all workers to exit and waits for them to finish.
func (p *rowPool) stop() {
	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
}
