package plan

import "errors"

// ErrNonPSDControlHessian is returned when the Cholesky factorization of
// Q_uu + mu*I fails during a backup. The solver driver responds by
// escalating the Levenberg-Marquardt damping mu and retrying (§4.5); it is
// never surfaced to the caller of Solve directly.
var ErrNonPSDControlHessian = errors.New("plan: control Hessian Q_uu is not positive definite")
