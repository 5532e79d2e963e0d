package solver

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// readInt reads an int from r.
// 'b' is the last read byte. It can be a space, a '-' or a digit.
// The int can be negated.
// All spaces before the int value are ignored.
// Can return EOF.
func readInt(b *byte, r *bufio.Reader) (res int, err error) {
	for err == nil && isSpace(*b) {
		*b, err = r.ReadByte()
	}
	if err == io.EOF {
		return res, io.EOF
	}
	if err != nil {
		return res, errors.Wrap(err, "could not read digit")
	}
	neg := 1
	if *b == '-' {
		neg = -1
		*b, err = r.ReadByte()
		if err != nil {
			return 0, errors.Wrap(err, "cannot read int")
		}
	}
	for err == nil {
		if *b < '0' || *b > '9' {
			return 0, errors.Errorf("cannot read int: %q is not a digit", *b)
		}
		res = 10*res + int(*b-'0')
		*b, err = r.ReadByte()
		if isSpace(*b) {
			break
		}
	}
	res *= neg
	return res, err
}

func parseHeader(r *bufio.Reader) (nbVars, nbClauses int, err error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return 0, 0, errors.Wrap(err, "cannot read header")
	}
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return 0, 0, errors.Errorf("invalid syntax %q in header", line)
	}
	nbVars, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, errors.Errorf("nbvars not an int: %q", fields[1])
	}
	nbClauses, err = strconv.Atoi(fields[2])
	if err != nil {
		return 0, 0, errors.Errorf("nbclauses not an int: %q", fields[2])
	}
	return nbVars, nbClauses, nil
}

// ParseCNF reads a DIMACS CNF stream and loads it into a new solver created
// with the given options.
func ParseCNF(f io.Reader, opts Options) (*Solver, error) {
	s := NewSolver(opts)
	r := bufio.NewReader(f)
	b, err := r.ReadByte()
	for err == nil {
		if b == 'c' { // Ignore comment
			b, err = r.ReadByte()
			for err == nil && b != '\n' {
				b, err = r.ReadByte()
			}
		} else if b == 'p' { // Parse header
			nbVars, _, err2 := parseHeader(r)
			if err2 != nil {
				return nil, errors.Wrap(err2, "cannot parse CNF header")
			}
			for s.NVars() < nbVars {
				s.NewVar(Indet, true)
			}
		} else {
			lits := make([]int, 0, 3) // Make room for a few lits to improve performance
			for {
				val, err2 := readInt(&b, r)
				if err2 == io.EOF {
					if len(lits) != 0 { // This is not a trailing space at the end...
						return nil, errors.New("unfinished clause while EOF found")
					}
					break // Only trailing spaces at the end of the file, that is ok
				}
				if err2 != nil {
					return nil, errors.Wrap(err2, "cannot parse clause")
				}
				if val == 0 {
					s.AddClauseInts(lits...)
					break
				}
				lits = append(lits, val)
			}
		}
		b, err = r.ReadByte()
	}
	if err != io.EOF {
		return nil, err
	}
	return s, nil
}

// ParseSlice loads a slice of slices of CNF literals into a new solver with
// default options. The argument is supposed to be a well-formed CNF.
func ParseSlice(cnf [][]int) *Solver {
	s := New()
	for _, line := range cnf {
		s.AddClauseInts(line...)
	}
	return s
}
