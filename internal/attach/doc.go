// Package attach drives externally loaded assets from tagged particles.
//
// Particles spawned with the same attachment tag share an
// [dynamo.AttachmentID]. With one anchor the asset is carried along at a
// fixed offset. With three anchors the reference triangle captured on the
// first tick is matched against the live triangle every dirty tick, and
// the resulting rigid motion is applied to the asset's offset pose. Any
// other anchor count leaves the asset at its static pose.
package attach
