// Package serialization implements the .born checkpoint format used by
// deepzero models.
//
// A checkpoint is an ordered list of float64 arrays tagged with the model
// type. Order is the contract: array i is loaded back into parameter i.
//
//	Format Structure (v2):
//	  [0x00: Magic "BORN"]
//	  [0x04: Version (uint32 LE)]
//	  [0x08: Flags (uint32 LE)]
//	  [0x10: Header Size (uint64 LE)]
//	  [0x18: Data Size (uint64 LE)]
//	  [0x20: SHA-256 of the data section (32 bytes)]
//	  [0x40: Header: JSON metadata]
//	  [Tensor data: float64 LE, 64-byte aligned]
//
// Example usage:
//
//	// Save
//	err := serialization.WriteFile("Rnnlm.born", serialization.Checkpoint{
//	    ModelType: "Rnnlm",
//	    Tensors:   model.Params(),
//	})
//
//	// Load
//	ckpt, err := serialization.ReadFile("Rnnlm.born")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for i, p := range model.Params() {
//	    p.CopyFrom(ckpt.Tensors[i])
//	}
package serialization
