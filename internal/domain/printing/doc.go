// Package printing contains the Printing bounded context.
// It holds the document model shared by every output target: the structured
// Document built per request, the DeviceProfile describing a target's
// geometry, the backend-agnostic render Plan, encoded Output, the error
// taxonomy and the PrintOutcome returned to callers. Print jobs record the
// history of dispatched documents.
package printing
