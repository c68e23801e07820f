/*

Package custody implements a multi-signature escrow.

Funds are locked under an escrow together with a fixed set of officials, an
approval threshold and a deadline. Before the deadline each official may
record exactly one approval. Once the threshold is met the beneficiary can
release the funds to themselves. After the deadline, and only while the
threshold is not met, the depositor can take the funds back.

The admission rules live in a pure decision core (see Decide) that is
composed into weave handlers. A released or refunded escrow is deleted, which
makes the instance terminal.

*/
package custody
