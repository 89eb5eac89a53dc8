/*
Package descriptor derives cheap fixed length visual descriptors from the
cropped region of a detection.  Descriptors are only used to re-identify the
same person between frames, they are color histograms rather than learned
embeddings.
*/
package descriptor
