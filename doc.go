// Package huffpack implements a file compressor based on static Huffman
// coding over 8-bit symbols.
//
// A compressed artifact is laid out as follows, with every multi-bit field
// written most significant bit first and no alignment between fields:
//
//     byte 0      number of valid bits in the final byte (1..8)
//     byte 1      number of code table entries, minus one
//     entries     symbol (8 bits), code length (8 bits), code bits
//     body        the code of every input byte, in order
//     padding     zero bits up to the next byte boundary
//
// Entries appear in ascending symbol order.  Bytes 0 and 1 are written last,
// after the rest of the artifact has been flushed, so encoding requires an
// Output that can be written positionally.
//
// References:
//
//     <https://en.wikipedia.org/wiki/Huffman_coding>
//
package huffpack
